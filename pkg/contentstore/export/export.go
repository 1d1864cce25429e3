// Package export renders content for download: the full document as JSON
// and one content type as CSV.
package export

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// NoEntriesMessage is shown when a CSV export is requested for an empty type.
const NoEntriesMessage = "Keine Einträge zum Exportieren vorhanden."

// fixed leading CSV columns
var baseColumns = []string{"id", "createdAt", "updatedAt"}

// JSON renders doc in the export format.
func JSON(doc *contentstore.Document) ([]byte, error) {
	return contentstore.EncodeDocument(doc)
}

// JSONFileName is the download name for a full export taken at now.
func JSONFileName(now time.Time) string {
	return fmt.Sprintf("hellers-content-%s.json", now.Format(time.DateOnly))
}

// CSVFileName is the download name for a CSV export of one type taken at now.
func CSVFileName(contentType string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", contentType, now.Format(time.DateOnly))
}

// CSV renders entries as comma-separated text with a header row. Columns are
// id, createdAt, updatedAt and then every scalar data key in first-seen
// order. Nested values never become columns. Rows are joined with "\n".
// An empty slice yields ErrNoEntries.
func CSV(entries []*contentstore.Entry) (string, error) {
	if len(entries) == 0 {
		return "", contentstore.ErrNoEntries
	}

	columns := Columns(entries)
	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(columns, ","))

	for _, e := range entries {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = escape(cell(e, col))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n"), nil
}

// Columns returns the CSV header for entries.
func Columns(entries []*contentstore.Entry) []string {
	columns := append([]string{}, baseColumns...)
	seen := make(map[string]bool)
	for _, c := range baseColumns {
		seen[c] = true
	}
	for _, e := range entries {
		keys := make([]string, 0, len(e.Data))
		for k, v := range e.Data {
			if isScalar(v) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

func cell(e *contentstore.Entry, col string) string {
	switch col {
	case "id":
		return e.ID
	case "createdAt":
		return formatTime(e.CreatedAt)
	case "updatedAt":
		return formatTime(e.UpdatedAt)
	}
	return formatValue(e.Data[col])
}

func formatTime(t contentstore.Timestamp) string {
	raw, err := t.MarshalJSON()
	if err != nil {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, map[string]any, []any, []string, []map[string]any:
		return false
	}
	return true
}

// formatValue prints a value the way a browser stringifies it.
func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any:
		return "[object Object]"
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	default:
		return fmt.Sprint(t)
	}
}

// formatNumber follows the ECMAScript Number-to-String rules: shortest
// round-trip digits, plain notation for magnitudes in [1e-6, 1e21) and
// exponent notation such as "1e+21" or "1.5e-7" outside it.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// escape quotes a field containing a comma, double quote or newline,
// doubling embedded quotes.
func escape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}
