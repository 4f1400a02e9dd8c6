package match

import (
	"regexp"
	"strings"
)

// Patterns that identify an installment number inside a title, in
// priority order: arabic digits ("Red Alert 2"), roman numerals
// ("Dark Souls III"), spelled-out numbers ("Army of Two"). The first
// pattern with a match anywhere in the string wins; later numeric
// mentions are ignored.
var numberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d+\b`),
	regexp.MustCompile(`\b[ivxlc]+\b`),
	regexp.MustCompile(`\b(?:one|two|three|four|five)\b`),
}

// ExtractSeriesAndNumber splits a normalized title into the series
// prefix (everything before the number token) and the number token
// itself. If the title carries no number the whole string is returned
// with an empty number.
func ExtractSeriesAndNumber(name string) (series, number string) {
	for _, pat := range numberPatterns {
		loc := pat.FindStringIndex(name)
		if loc == nil {
			continue
		}
		return strings.TrimSpace(name[:loc[0]]), name[loc[0]:loc[1]]
	}
	return name, ""
}
