// Package dateparse resolves colloquial Arabic date expressions to calendar dates.
package dateparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/bluedeem/clinic-bot/internal/arabic"
)

// DefaultTimezone anchors relative expressions like "today" and "tomorrow".
const DefaultTimezone = "Asia/Riyadh"

var relativeDays = map[string]int{
	"اليوم":    0,
	"النهارده": 0,
	"بكرا":     1,
	"بكره":     1,
	"غدا":      1,
	"بعد بكرا": 2,
	"بعد بكره": 2,
	"بعد غد":   2,
}

var weekdays = map[string]time.Weekday{
	"الاحد":    time.Sunday,
	"الأحد":    time.Sunday,
	"الاثنين":  time.Monday,
	"الإثنين":  time.Monday,
	"الثلاثاء": time.Tuesday,
	"الاربعاء": time.Wednesday,
	"الأربعاء": time.Wednesday,
	"الخميس":   time.Thursday,
	"الجمعة":   time.Friday,
	"السبت":    time.Saturday,
}

var numericLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// Parser resolves date expressions relative to a fixed location.
type Parser struct {
	loc *time.Location
	now func() time.Time
}

// New builds a Parser for tz, falling back to UTC when the zone is unknown.
func New(tz string) *Parser {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return &Parser{loc: loc, now: time.Now}
}

// NewAt builds a Parser with a fixed clock, for tests.
func NewAt(tz string, now func() time.Time) *Parser {
	p := New(tz)
	p.now = now
	return p
}

// Parse resolves s to a calendar date. Relative words resolve against the
// parser's clock; a named weekday resolves to the next occurrence, at least
// one day ahead. Numeric forms accept YYYY-MM-DD, DD/MM/YYYY and DD-MM-YYYY.
func (p *Parser) Parse(s string) (time.Time, error) {
	norm := arabic.Normalize(s)
	if norm == "" {
		return time.Time{}, fmt.Errorf("dateparse: empty expression")
	}
	today := p.today()

	if offset, ok := relativeDays[norm]; ok {
		return today.AddDate(0, 0, offset), nil
	}
	for word, wd := range weekdays {
		if norm == arabic.Normalize(word) || norm == arabic.Normalize("يوم "+word) {
			return nextWeekday(today, wd), nil
		}
	}
	for _, layout := range numericLayouts {
		if t, err := time.ParseInLocation(layout, norm, p.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dateparse: unrecognized expression %q", s)
}

// ContainsDateWord reports whether the normalized text mentions a date
// expression this package can resolve, and returns the first match.
func ContainsDateWord(norm string) (string, bool) {
	for _, phrase := range []string{"بعد بكرا", "بعد بكره", "بعد غد"} {
		if strings.Contains(norm, phrase) {
			return phrase, true
		}
	}
	tokens := strings.Fields(norm)
	for _, tok := range tokens {
		if _, ok := relativeDays[tok]; ok {
			return tok, true
		}
		for word := range weekdays {
			if tok == arabic.Normalize(word) {
				return tok, true
			}
		}
	}
	return "", false
}

// Weekday returns the English lowercase weekday name used by availability rows.
func Weekday(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

func (p *Parser) today() time.Time {
	now := p.now().In(p.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.loc)
}

func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	days := int(wd-from.Weekday()+7) % 7
	if days == 0 {
		days = 7
	}
	return from.AddDate(0, 0, days)
}
