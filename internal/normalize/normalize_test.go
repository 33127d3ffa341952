package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"rendered mention", "@1234567890 Hello   world", "Hello world"},
		{"serialized mention", "6281234567890@c.us cek stok semen", "cek stok semen"},
		{"whatsmeow jid", "halo 6281234567890@s.whatsapp.net apa kabar", "halo apa kabar"},
		{"mention mid sentence", "tolong @6281234567890 cek", "tolong cek"},
		{"left to right mark", "\u200estok\u200e besi", "stok besi"},
		{"no break space", "stok\u00a0\u00a0pasir", "stok pasir"},
		{"newlines and tabs", "  baris\n\tkedua  ", "baris kedua"},
		{"em spaces", "Hello\u2003\u2003world", "Hello world"},
		{"ideographic spaces", "Hello\u3000\u3000world", "Hello world"},
		{"narrow no break space", "stok\u202fsemen", "stok semen"},
		{"vertical tabs", "Hello\v\vworld", "Hello world"},
		{"line separator and bom", "\ufeffstok\u2028besi", "stok besi"},
		{"mention followed by em space", "@6281234567890\u2003cek stok", "cek stok"},
		{"short number kept", "@12345 order", "@12345 order"},
		{"plain text untouched", "Berapa stok cat?", "Berapa stok cat?"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.raw))
		})
	}
}

func TestText_MentionOnlyIsEmpty(t *testing.T) {
	inputs := []string{
		"@1234567890",
		"@1234567890 ",
		" \u200e@628123456789012\u00a0 ",
		"628123456789@c.us",
		"@1234567890 @0987654321\n",
	}
	for _, raw := range inputs {
		assert.Empty(t, Text(raw), "raw=%q", raw)
	}
}
