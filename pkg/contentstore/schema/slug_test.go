package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Äthiopien Yirgacheffe", "aethiopien-yirgacheffe"},
		{"Süße Grüße aus Köln", "suesse-gruesse-aus-koeln"},
		{"  V60 -- Pour Over!  ", "v60-pour-over"},
		{"Cold_Brew (Kalt)", "cold-brew-kalt"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "exactly10!", Truncate("exactly10!", 10))
	assert.Equal(t, "Kaffee ...", Truncate("Kaffee aus Kenia", 10))
	assert.Equal(t, "Grü...", Truncate("Grüße aus Köln", 6))
}
