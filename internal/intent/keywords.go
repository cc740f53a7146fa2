package intent

import (
	"strings"

	"github.com/bluedeem/clinic-bot/internal/arabic"
)

// Keyword sets drive the rule scorer. All matching happens on normalized
// text, so each set is normalized once at package init.
var (
	simpleGreetings = normalizeSet(
		"هلا", "اهلا", "أهلا", "اهلاً", "أهلاً", "مرحبا", "هاي", "هلاً",
	)
	greetingHints = normalizeSet(
		"السلام عليكم", "وعليكم السلام", "شلونك", "كيفك", "هلا", "اهلا", "مرحبا", "هاي", "السلام",
	)
	thanksHints = normalizeSet(
		"شكرا", "شكراً", "شكر", "مشكور", "مشكورة", "يعطيك", "الله يعطيك", "تسلم", "تسلمين", "تمام", "بيض الله وجهك",
	)
	goodbyeHints = normalizeSet(
		"مع السلامة", "باي", "وداع", "الله يوفقك", "يلا سلام", "نشوفك", "في امان الله",
	)
	hoursHints = normalizeSet(
		"متى تفتح", "متى تفتحون", "اوقات الدوام", "اوقات العمل", "متى الدوام", "ساعات العمل",
		"متى تفتح الفروع", "متى الفروع تفتح", "اوقات الفروع", "دوامكم",
	)
	branchHints = normalizeSet(
		"وين", "الموقع", "موقع", "عنوان", "فروع", "فرع", "مكانكم", "لوكيشن", "لوكيشنكم",
	)
	serviceHints = normalizeSet(
		"خدمة", "خدمات", "سعر", "اسعار", "كم سعر", "تكلفة", "بكم", "كم تكلف", "مدة", "كم دقيقة",
	)
	bookingWords = normalizeSet(
		"حجز", "احجز", "موعد", "ابي احجز", "أبي احجز", "ابغى احجز", "أبغى احجز", "ابي موعد", "أبي موعد", "ابغى موعد",
	)
	bookingStrict = normalizeSet(
		"ابي احجز", "أبي احجز", "ابغى احجز", "أبغى احجز", "ابي موعد", "أبي موعد", "ابغى موعد", "أبغى موعد",
	)
	generalHints = normalizeSet(
		"استفسار", "سؤال", "عندي سؤال", "عندي استفسار", "من انت", "مين انت", "ما اسمك", "اسمك", "كيف احجز", "شلون احجز", "طريقة الحجز",
	)
	wantVerbs = normalizeSet(
		"ابي", "أبي", "ابغى", "أبغى", "اريد", "أريد", "احتاج", "أحتاج", "دلني", "رشح", "اقترح",
	)
	doctorListHints = normalizeSet(
		"مين الاطباء", "مين أطباء", "قائمة الاطباء", "قائمة الأطباء", "اسماء الاطباء", "أسماء الأطباء", "مين الدكاتره", "مين الدكاترة",
	)
	bestDoctorHints = normalizeSet(
		"مين احسن", "مين أفضل", "مين افضل", "افضل", "أحسن", "احسن",
	)
	doctorWords = normalizeSet(
		"طبيب", "دكتور", "دكتورة", "دكاتره", "دكاترة",
	)
	specialtyKeys = normalizeSet(
		"اسنان", "جلدية", "اطفال", "عظام", "نساء", "ولادة", "باطنية",
	)
	nameHintTriggers = normalizeSet(
		"دكتور", "دكتوره", "دكتورة", "د", "د.", "مع", "عند",
	)
)

func normalizeSet(words ...string) []string {
	seen := make(map[string]bool, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		n := arabic.Normalize(w)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func containsAny(norm string, set []string) bool {
	for _, w := range set {
		if strings.Contains(norm, w) {
			return true
		}
	}
	return false
}

func inSet(norm string, set []string) bool {
	for _, w := range set {
		if norm == w {
			return true
		}
	}
	return false
}

// cleanInSet compares the punctuation-stripped message against the
// punctuation-stripped set entries.
func cleanInSet(clean string, set []string) bool {
	for _, w := range set {
		if clean == arabic.CleanKey(w) {
			return true
		}
	}
	return false
}
