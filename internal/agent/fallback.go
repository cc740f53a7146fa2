package agent

import (
	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/intent"
)

// fallbackReply is the deterministic per-intent answer used when the model
// call fails. Always clarification-style, never an error string.
func fallbackReply(intentName, message string) Reply {
	switch intentName {
	case intent.IntentDoctor:
		return Reply{
			ResponseText:       "تمام ✅ تبي قائمة كل الأطباء ولا تخصص معيّن؟ (أسنان/جلدية/أطفال/نساء)",
			NeedsClarification: true,
			SuggestedQuestions: []string{"أطباء الأسنان", "أطباء الجلدية", "أطباء الأطفال", "كل الأطباء"},
		}
	case intent.IntentBranch:
		return Reply{
			ResponseText:       "أكيد 📍 تبي فروع أي مدينة؟ ولا أعطيك كل الفروع؟",
			NeedsClarification: true,
			SuggestedQuestions: []string{"كل الفروع", "فروع الرياض", "فروع جدة"},
		}
	case intent.IntentService:
		return Reply{
			ResponseText:       "على الرحب والسعة 💡 تبي قائمة الخدمات ولا خدمة معينة؟",
			NeedsClarification: true,
			SuggestedQuestions: []string{"خدمات الأسنان", "خدمات الجلدية", "كل الخدمات"},
		}
	case intent.IntentBooking:
		return Reply{
			ResponseText:       "أساعدك بالحجز. عطيني اسمك ورقمك والخدمة أو الطبيب المفضل.",
			NeedsClarification: true,
			SuggestedQuestions: []string{"حجز مع طبيب أسنان", "حجز خدمة جلدية", "حجز أقرب موعد"},
		}
	case intent.IntentHours:
		return Reply{
			ResponseText:       "أقدر أعطيك أوقات الدوام. تبي كل الفروع ولا مدينة معينة؟",
			NeedsClarification: true,
			SuggestedQuestions: []string{"أوقات فروع الرياض", "أوقات فروع جدة", "كل الفروع"},
		}
	case intent.IntentContact:
		return Reply{
			ResponseText:       "للتواصل: تبي أرقام أو موقع الفروع؟",
			NeedsClarification: true,
			SuggestedQuestions: []string{"أرقام الفروع", "مواقع الفروع"},
		}
	case intent.IntentGeneral:
		norm := arabic.Normalize(message)
		switch {
		case containsAny(norm, "اسمك", "من انت", "مين انت"):
			return Reply{
				ResponseText:       "اسمي مساعد بلو ديم 🏥 كيف أقدر أساعدك اليوم؟ عندك استفسار عن أطباء أو خدمات أو حجز؟",
				NeedsClarification: false,
				SuggestedQuestions: []string{"أطباء", "خدمات", "حجز", "فروع"},
			}
		case containsAny(norm, "كيف احجز", "طريقة الحجز"):
			return Reply{
				ResponseText:       "الحجز سهل! قولي اسم الطبيب أو الخدمة اللي تبيها، وأنا أساعدك تحجز. أو قولي 'حجز' للبدء.",
				NeedsClarification: false,
				SuggestedQuestions: []string{"حجز", "أطباء", "خدمات"},
			}
		}
	}
	return Reply{
		ResponseText:       "أهلاً! كيف أقدر أساعدك؟ عندك استفسار عن أطباء أو خدمات أو فروع؟",
		NeedsClarification: true,
		SuggestedQuestions: []string{"أطباء", "فروع", "خدمات", "حجز"},
	}
}
