package conversation

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func turn(message, response string) Turn {
	return Turn{Message: message, Response: response, Timestamp: time.Now()}
}

func TestSummarizeEmptyHistory(t *testing.T) {
	assert.Empty(t, Summarize(nil, 2000))
}

func TestSummarizeKeepsChronologicalOrder(t *testing.T) {
	turns := []Turn{
		turn("وين فروعكم", "📍 الفروع:\n\n1. فرع العليا"),
		turn("كم اسعار الليزر", "الجلسة تبدأ من 300 ريال"),
	}

	out := Summarize(turns, 2000)
	first := strings.Index(out, "وين فروعكم")
	second := strings.Index(out, "كم اسعار الليزر")
	assert.Greater(t, first, -1)
	assert.Greater(t, second, first, "older turn must come first")
}

func TestSummarizeDropsOldestTurnsWholeWhenOverBudget(t *testing.T) {
	turns := []Turn{
		turn(strings.Repeat("قديم ", 40), strings.Repeat("رد ", 40)),
		turn("سؤال جديد", "جواب جديد"),
	}

	out := Summarize(turns, 80)
	assert.Contains(t, out, "سؤال جديد")
	assert.NotContains(t, out, "قديم")
}

func TestSummarizeRespectsBudget(t *testing.T) {
	var turns []Turn
	for i := 0; i < 20; i++ {
		turns = append(turns, turn(strings.Repeat("س", 50), strings.Repeat("ج", 50)))
	}

	const maxChars = 500
	out := Summarize(turns, maxChars)
	overhead := utf8.RuneCountInString(summaryTrailer) + utf8.RuneCountInString("ملخص المحادثة السابقة:\n\n") + 64
	assert.LessOrEqual(t, utf8.RuneCountInString(out), maxChars+overhead)
}

func TestSummarizeDerivesTopicsAndDoctors(t *testing.T) {
	turns := []Turn{
		turn("مين الاطباء عندكم", "عندنا دكتور خالد الحربي ودكتورة سارة"),
		turn("وش الخدمات المتاحة", "تنظيف بشرة وليزر"),
		turn("ابي احجز موعد", "تمام"),
	}

	out := Summarize(turns, 2000)
	assert.Contains(t, out, "المواضيع المطروحة")
	assert.Contains(t, out, "خدمات")
	assert.Contains(t, out, "حجز")
	assert.Contains(t, out, "أطباء تم ذكرهم")
	assert.Contains(t, out, "الحربي")
}

func TestSummarizeAppendsInstructionTrailer(t *testing.T) {
	out := Summarize([]Turn{turn("هلا", "هلا والله")}, 2000)
	assert.True(t, strings.HasSuffix(out, summaryTrailer))
}
