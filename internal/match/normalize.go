package match

import "strings"

var glyphReplacer = strings.NewReplacer(
	"™", "",
	"®", "",
	"©", "",
	":", "",
)

// NormalizeName converts a raw store title to the canonical comparison
// form: lowercase, trademark/registered/copyright glyphs and colons
// removed, surrounding whitespace trimmed.
func NormalizeName(name string) string {
	return strings.TrimSpace(glyphReplacer.Replace(strings.ToLower(name)))
}
