package conversation

import (
	"strings"
	"unicode/utf8"

	"github.com/bluedeem/clinic-bot/internal/arabic"
)

// DefaultSummaryChars is the prompt budget for the history block.
const DefaultSummaryChars = 2000

const summaryTrailer = "\n\n**مهم:** استخدم هذه المعلومات لفهم السياق وربط الأسئلة الحالية بالمحادثة السابقة."

var doctorMarkers = []string{"طبيب", "دكتور", "د."}

var topicMarkers = []struct {
	topic string
	words []string
}{
	{"خدمات", []string{"خدمة", "خدمات"}},
	{"فروع", []string{"فرع", "فروع", "فرعنا"}},
	{"حجز", []string{"حجز", "موعد", "احجز"}},
	{"أوقات الدوام", []string{"دوام", "ساعات", "وقت"}},
}

// Summarize renders turns into a prompt-ready history block of at most
// maxChars runes plus a fixed-size summary/trailer overhead. A derived topic
// and doctor-token summary is prefixed when anything was detected. Turns are
// packed newest first so recent context survives the budget; a turn that
// would overflow is dropped whole, never truncated. The final output lists
// the kept turns in chronological order.
func Summarize(turns []Turn, maxChars int) string {
	if len(turns) == 0 {
		return ""
	}
	if maxChars <= 0 {
		maxChars = DefaultSummaryChars
	}

	summary := deriveSummary(turns)

	var kept []string
	used := utf8.RuneCountInString(summary)
	for i := len(turns) - 1; i >= 0; i-- {
		entry := "المستخدم: " + turns[i].Message + "\nالبوت: " + turns[i].Response + "\n\n"
		length := utf8.RuneCountInString(entry)
		if used+length > maxChars {
			break
		}
		kept = append(kept, entry)
		used += length
	}

	// kept is newest first; flip back to chronological.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	var parts []string
	if summary != "" {
		parts = append(parts, "ملخص المحادثة السابقة:\n"+summary+"\n")
	}
	parts = append(parts, kept...)

	result := strings.TrimSpace(strings.Join(parts, "\n"))
	if result == "" {
		return ""
	}
	return result + summaryTrailer
}

// deriveSummary scans all turns for topic keywords and candidate doctor-name
// tokens, returning a short digest or an empty string.
func deriveSummary(turns []Turn) string {
	var topics []string
	seenTopic := map[string]bool{}
	var doctors []string
	seenDoctor := map[string]bool{}

	for _, turn := range turns {
		text := arabic.Normalize(turn.Message) + " " + arabic.Normalize(turn.Response)

		if containsAnyWord(text, doctorMarkers) {
			for _, token := range strings.Fields(text) {
				if utf8.RuneCountInString(token) <= 3 || isDoctorMarker(token) {
					continue
				}
				if !seenDoctor[token] {
					seenDoctor[token] = true
					doctors = append(doctors, token)
				}
			}
		}

		for _, tm := range topicMarkers {
			if !seenTopic[tm.topic] && containsAnyWord(text, tm.words) {
				seenTopic[tm.topic] = true
				topics = append(topics, tm.topic)
			}
		}
	}

	var parts []string
	if len(topics) > 0 {
		parts = append(parts, "المواضيع المطروحة: "+strings.Join(topics, "، "))
	}
	if len(doctors) > 0 {
		if len(doctors) > 5 {
			doctors = doctors[:5]
		}
		parts = append(parts, "أطباء تم ذكرهم: "+strings.Join(doctors, "، "))
	}
	return strings.Join(parts, "\n")
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func isDoctorMarker(token string) bool {
	for _, m := range doctorMarkers {
		if token == m {
			return true
		}
	}
	return false
}
