package match

import "strings"

// editionAbbreviations expands the usual shorthand so "GOTY" and
// "Game of the Year Edition" compare equal. Replacement is plain
// substring rewriting, applied in this order.
var editionAbbreviations = []struct {
	abbr, full string
}{
	{"gotye", "game of the year edition"},
	{"goty", "game of the year edition"},
	{"de", "definitive edition"},
	{"ee", "enhanced edition"},
	{"ce", "collector's edition"},
	{"se", "special edition"},
}

// distinctEditionMarkers name editions that are genuinely different
// products. When one shows up, fuzzy equivalence is off the table and
// the edition texts must match exactly.
var distinctEditionMarkers = []string{
	"vr",
	"anniversary edition",
	"legendary edition",
	"special edition",
	"standard edition",
	"deluxe edition",
	"premium edition",
}

// baseNameMarkers is every substring that ends the base game name:
// the distinct markers plus both sides of the abbreviation table.
var baseNameMarkers = buildBaseNameMarkers()

func buildBaseNameMarkers() []string {
	out := make([]string, 0, len(distinctEditionMarkers)+2*len(editionAbbreviations))
	out = append(out, distinctEditionMarkers...)
	for _, a := range editionAbbreviations {
		out = append(out, a.abbr)
	}
	for _, a := range editionAbbreviations {
		out = append(out, a.full)
	}
	return out
}

// ExtractEditionInfo returns the edition text of a normalized title:
// whatever remains once the base game name is removed. "skyrim special
// edition" yields "special edition"; a plain title yields "".
func ExtractEditionInfo(name string) string {
	base := extractBaseName(name)
	if base == "" {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(strings.ReplaceAll(name, base, ""))
}

// extractBaseName truncates the title before the first edition marker
// found past position zero. The scan is substring-based, not word-
// boundary aware: a marker hiding inside an unrelated word earlier in
// the title truncates there too.
func extractBaseName(name string) string {
	base := name
	for _, marker := range baseNameMarkers {
		if idx := strings.Index(base, marker); idx > 0 {
			base = base[:idx]
		}
	}
	return strings.TrimSpace(base)
}

// ExpandEditionAbbreviations rewrites known abbreviations into their
// long form so differently abbreviated editions compare equal.
func ExpandEditionAbbreviations(edition string) string {
	out := strings.ToLower(edition)
	for _, a := range editionAbbreviations {
		out = strings.ReplaceAll(out, a.abbr, a.full)
	}
	return strings.TrimSpace(out)
}
