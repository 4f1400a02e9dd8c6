package match

import "testing"

func TestAreGamesMatching(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "Fallout 3", "Fallout 3", true},
		{"trademark glyphs and colon ignored", "DOOM™: Eternal", "doom eternal", true},
		{"different installments", "Fallout 3", "Fallout 4", false},
		{"roman vs roman different", "Dark Souls iii", "Dark Souls ii", false},
		{"different series", "Fallout 3", "Borderlands 3", false},
		{"goty abbreviation expands", "Borderlands GOTY", "Borderlands Game of the Year Edition", true},
		{"goty both abbreviated", "Borderlands GOTY", "Borderlands GOTY", true},
		{"distinct marker forces exact equality", "Doom VR", "Doom", false},
		{"same distinct edition on both sides", "Skyrim Special Edition", "Skyrim Special Edition", true},
		{"special edition vs base game", "Skyrim Special Edition", "Skyrim", false},
		{"se abbreviation matches special edition", "Skyrim SE", "Skyrim Special Edition", true},
		{"deluxe is not standard", "Control Deluxe Edition", "Control Standard Edition", false},
		{"unlisted edition variants only match textually", "Hades Ultimate Pack", "Hades", false},
		{"numbered entry matches unnumbered base", "Fallout 3", "Fallout", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AreGamesMatching(tc.a, tc.b); got != tc.want {
				t.Errorf("AreGamesMatching(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// the predicate treats both operands uniformly
			if got := AreGamesMatching(tc.b, tc.a); got != tc.want {
				t.Errorf("AreGamesMatching(%q, %q) = %v, want %v (asymmetric)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}
