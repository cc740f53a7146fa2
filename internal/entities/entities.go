// Package entities extracts structured values from chat messages.
package entities

import (
	"regexp"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/dateparse"
	"github.com/bluedeem/clinic-bot/internal/phone"
)

// Entity types shared across classification and reply generation.
const (
	TypeDoctorName  = "doctor_name"
	TypeServiceName = "service_name"
	TypeBranchID    = "branch_id"
	TypePhone       = "phone"
	TypeDate        = "date"
	TypeTime        = "time"
)

// Entity is a single extracted value with its extraction confidence.
type Entity struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

var (
	phonePattern = regexp.MustCompile(`(?:\+966|00966|966|0)?5\d{8}`)
	timePattern  = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\b`)
)

// Extract pulls phone, time and date entities from a message. At most one
// entity per type is returned, keeping the first match in text order.
func Extract(message string) []Entity {
	norm := arabic.Normalize(message)
	if norm == "" {
		return nil
	}
	var out []Entity

	if raw := phonePattern.FindString(norm); raw != "" {
		if canonical, ok := phone.Normalize(raw); ok {
			out = append(out, Entity{Type: TypePhone, Value: canonical, Confidence: 0.95})
		}
	}
	if m := timePattern.FindString(norm); m != "" {
		out = append(out, Entity{Type: TypeTime, Value: m, Confidence: 0.90})
	}
	if word, ok := dateparse.ContainsDateWord(norm); ok {
		out = append(out, Entity{Type: TypeDate, Value: word, Confidence: 0.85})
	}
	return out
}

// Merge combines two entity lists keyed by type. Entries in preferred win;
// fallback fills only the types preferred lacks.
func Merge(preferred, fallback []Entity) []Entity {
	seen := make(map[string]bool, len(preferred))
	out := make([]Entity, 0, len(preferred)+len(fallback))
	for _, e := range preferred {
		if e.Type == "" || seen[e.Type] {
			continue
		}
		seen[e.Type] = true
		out = append(out, e)
	}
	for _, e := range fallback {
		if e.Type == "" || seen[e.Type] {
			continue
		}
		seen[e.Type] = true
		out = append(out, e)
	}
	return out
}

// First returns the value of the first entity of the given type, if any.
func First(list []Entity, typ string) (string, bool) {
	for _, e := range list {
		if e.Type == typ {
			return e.Value, true
		}
	}
	return "", false
}
