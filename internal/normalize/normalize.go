// Package normalize cleans raw WhatsApp message text before it is sent to
// the intent backend.
package normalize

import (
	"regexp"
	"strings"
)

var (
	// Serialized mentions such as "6281234567890@c.us". Web clients use the
	// c.us suffix; whatsmeow uses s.whatsapp.net.
	mentionJIDRe = regexp.MustCompile(`\b\d{10,15}@(?:c\.us|s\.whatsapp\.net)\b`)
	// Rendered mentions such as "@6281234567890 ".
	mentionTagRe = regexp.MustCompile(`@\d{10,15}` + space + `?`)
	whitespaceRe = regexp.MustCompile(space + `+`)
)

// space matches what WhatsApp clients treat as whitespace: ASCII spacing,
// vertical tab, Unicode space separators, line and paragraph separators, and
// the byte order mark.
const space = `[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

const (
	leftToRightMark = "\u200e"
	noBreakSpace    = "\u00a0"
)

// Text strips mention markup and invisible characters from raw and collapses
// whitespace. The result may be empty, in which case the message carries no
// query.
//
// Mentions are removed before whitespace is collapsed so the gap they leave
// does not survive as a double space.
func Text(raw string) string {
	s := mentionJIDRe.ReplaceAllString(raw, "")
	s = mentionTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, leftToRightMark, "")
	s = strings.ReplaceAll(s, noBreakSpace, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
