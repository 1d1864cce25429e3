package schema

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	umlauts     = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	slugInvalid = regexp.MustCompile(`[^\w\s-]`)
	slugSpacing = regexp.MustCompile(`[\s_-]+`)
	lowerGerman = cases.Lower(language.German)
)

// GenerateSlug derives a URL-friendly slug, transliterating German umlauts.
func GenerateSlug(text string) string {
	s := strings.TrimSpace(lowerGerman.String(text))
	s = umlauts.Replace(s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpacing.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Truncate shortens text to at most maxLength runes, ending in "...".
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	if maxLength < 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
