// Package phone validates and canonicalizes Saudi mobile numbers.
package phone

import (
	"regexp"
	"strings"

	"github.com/bluedeem/clinic-bot/internal/arabic"
)

var saudiMobile = regexp.MustCompile(`^(?:\+966|00966|966|0)?(5\d{8})$`)

// Normalize canonicalizes a Saudi mobile number to the local 05XXXXXXXX form.
// It accepts +966, 00966, 966 and 0 prefixes, Eastern Arabic digits, and
// embedded spaces or dashes. The second return value reports validity.
func Normalize(raw string) (string, bool) {
	s := arabic.Normalize(raw)
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
	m := saudiMobile.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return "0" + m[1], true
}

// Valid reports whether raw parses as a Saudi mobile number.
func Valid(raw string) bool {
	_, ok := Normalize(raw)
	return ok
}
