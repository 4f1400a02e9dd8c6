// Package match decides whether two differently formatted store titles
// denote the same real-world game. The predicate is binary and
// symmetric; there is no confidence score.
package match

import "strings"

// AreGamesMatching reports whether the two titles denote the same game.
//
// The decision short-circuits in order: different installment numbers
// in a series never match; different series names never match; finally
// the edition texts, with abbreviations expanded, must be exactly
// equal. Exact equality is also what a distinct edition marker (VR,
// Anniversary Edition, ...) demands, so "Doom VR" never matches "Doom"
// while "Borderlands GOTY" matches "Borderlands Game of the Year
// Edition" through expansion.
func AreGamesMatching(nameA, nameB string) bool {
	na := NormalizeName(nameA)
	nb := NormalizeName(nameB)

	seriesA, numA := ExtractSeriesAndNumber(na)
	seriesB, numB := ExtractSeriesAndNumber(nb)

	// Both numbered and differently numbered: different installments.
	if numA != "" && numB != "" && numA != numB {
		return false
	}

	// Compare the series with edition text stripped, so "borderlands
	// goty" and "borderlands game of the year edition" agree on the
	// series "borderlands".
	if !strings.EqualFold(extractBaseName(seriesA), extractBaseName(seriesB)) {
		return false
	}

	editionA := ExpandEditionAbbreviations(ExtractEditionInfo(na))
	editionB := ExpandEditionAbbreviations(ExtractEditionInfo(nb))

	// Distinct markers and plain editions alike require the expanded
	// texts to be identical; expansion has already unified the known
	// abbreviations, anything else only matches itself.
	return editionA == editionB
}

// SeriesKey returns the series identity AreGamesMatching compares:
// the normalized title with any installment number and edition text
// stripped. Two titles can only ever match if their keys are equal,
// which makes the key suitable for serializing catalog writes.
func SeriesKey(name string) string {
	series, _ := ExtractSeriesAndNumber(NormalizeName(name))
	return extractBaseName(series)
}
