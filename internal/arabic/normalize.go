// Package arabic canonicalizes Arabic text for keyword and name matching.
package arabic

import (
	"regexp"
	"strings"
)

const tatweel = 'ـ'

var letterFolds = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ى", "ي",
	"ؤ", "و",
	"ئ", "ي",
)

var digitFolds = strings.NewReplacer(
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

var nonWord = regexp.MustCompile(`[^0-9A-Za-z_\x{0600}-\x{06FF}]+`)

// Normalize canonicalizes Arabic text: trims and lowercases, removes diacritics
// and tatweel, folds hamza-bearing alef forms to bare alef, trailing yeh and
// hamza-over-waw/yeh to their base letters, and maps Eastern Arabic-Indic
// digits to ASCII. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == tatweel || isDiacritic(r) {
			continue
		}
		b.WriteRune(r)
	}
	s = letterFolds.Replace(b.String())
	return digitFolds.Replace(s)
}

// CleanKey strips everything except word characters and Arabic letters,
// producing a compact key for exact-phrase comparisons.
func CleanKey(s string) string {
	return nonWord.ReplaceAllString(strings.TrimSpace(s), "")
}

func isDiacritic(r rune) bool {
	return (r >= 0x0617 && r <= 0x061A) || (r >= 0x064B && r <= 0x0652)
}
