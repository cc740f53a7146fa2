package clinicdata

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/bluedeem/clinic-bot/internal/arabic"
)

// MinSimilarity is the floor below which a fuzzy name match is rejected.
const MinSimilarity = 70

// Similarity scores two names on a 0-100 scale after Arabic normalization.
// 100 means identical; 0 means nothing in common.
func Similarity(a, b string) int {
	na, nb := arabic.Normalize(a), arabic.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	// Partial containment covers titles and honorifics ("د. سارة" vs "سارة").
	shorter, longer := na, nb
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) >= 3 && strings.Contains(longer, shorter) {
		return 90
	}
	dist := levenshtein.ComputeDistance(na, nb)
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 100 - (100*dist)/longest
}
