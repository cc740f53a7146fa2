package conversation

import (
	"fmt"
	"strings"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
)

const (
	cancelReply  = "تم إلغاء الحجز. كيف أقدر أساعدك؟"
	thanksReply  = "الله يعطيك العافية! 😊 إذا عندك أي استفسار ثاني، أنا موجود."
	goodbyeReply = "مع السلامة! الله يوفقك. إذا احتجت شي ثاني، أنا موجود."
	faqMenuReply = "عذراً، ما قدرت أفهم سؤالك بالضبط. تبي تعرف عن:\n• أطباء\n• فروع\n• خدمات\n• حجز"

	noHoursReply    = "⚠️ ما لقيت معلومات عن الدوام حالياً."
	noContactReply  = "📞 للتواصل: تواصل معنا على الأرقام المتاحة في الفروع."
	noDoctorsReply  = "⚠️ ما لقيت أطباء متاحين حالياً."
	noServicesReply = "⚠️ ما لقيت خدمات متاحة حالياً."
	noBranchesReply = "⚠️ ما لقيت فروع متاحة حالياً."
)

// seededBookingReply opens the booking flow already bound to a doctor.
func seededBookingReply(doctorName string) string {
	return fmt.Sprintf("✅ حجز عند %s\n\nما اسمك؟", doctorName)
}

func numbered(items []string, sep string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, sep)
}

func hoursReply(branches []clinicdata.Branch) string {
	var items []string
	for _, b := range branches {
		if b.BranchName == "" {
			continue
		}
		line := b.BranchName + ":"
		if b.HoursWeekdays != "" {
			line += " الأسبوع: " + b.HoursWeekdays
		}
		if b.HoursWeekend != "" {
			line += " | نهاية الأسبوع: " + b.HoursWeekend
		}
		items = append(items, line)
	}
	if len(items) == 0 {
		return noHoursReply
	}
	return "⏰ أوقات الدوام:\n\n" + numbered(items, "\n")
}

func contactReply(branches []clinicdata.Branch) string {
	var items []string
	for _, b := range branches {
		if b.BranchName == "" {
			continue
		}
		info := b.BranchName
		if b.Phone != "" {
			info += "\n📞 " + b.Phone
		}
		if b.Email != "" {
			info += "\n📧 " + b.Email
		}
		if b.Address != "" {
			info += "\n📍 " + b.Address
			if b.City != "" {
				info += ", " + b.City
			}
		} else if b.City != "" {
			info += "\n📍 " + b.City
		}
		items = append(items, info)
	}
	if len(items) == 0 {
		return noContactReply
	}
	return "📞 معلومات التواصل:\n\n" + numbered(items, "\n\n")
}

func doctorListReply(title string, doctors []clinicdata.Doctor) string {
	var items []string
	for _, d := range doctors {
		if d.DoctorName == "" {
			continue
		}
		if d.Specialty != "" {
			items = append(items, fmt.Sprintf("%s (%s)", d.DoctorName, d.Specialty))
		} else {
			items = append(items, d.DoctorName)
		}
	}
	if len(items) == 0 {
		return noDoctorsReply
	}
	return title + "\n\n" + numbered(items, "\n")
}

func doctorDetailReply(d *clinicdata.Doctor, branch *clinicdata.Branch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s\n", d.DoctorName)
	if d.Specialty != "" {
		fmt.Fprintf(&b, "التخصص: %s\n", d.Specialty)
	}
	if d.ExperienceYears != "" {
		fmt.Fprintf(&b, "⏰ الخبرة: %s سنة\n", d.ExperienceYears)
	}
	if d.Qualifications != "" {
		fmt.Fprintf(&b, "📜 المؤهلات: %s\n", d.Qualifications)
	}
	switch {
	case branch != nil && branch.BranchName != "":
		location := branch.BranchName
		if branch.Address != "" {
			location += " - " + branch.Address
		}
		if branch.City != "" {
			location += ", " + branch.City
		}
		fmt.Fprintf(&b, "📍 الفرع: %s\n", location)
	case d.BranchID != "":
		fmt.Fprintf(&b, "📍 الفرع: %s\n", d.BranchID)
	}
	if d.Days != "" {
		fmt.Fprintf(&b, "⏰ الدوام: %s\n", d.Days)
	}
	if d.TimeFrom != "" && d.TimeTo != "" {
		fmt.Fprintf(&b, "⏰ الوقت: %s - %s\n", d.TimeFrom, d.TimeTo)
	}
	return strings.TrimSpace(b.String())
}

func servicesReply(services []clinicdata.Service) string {
	var items []string
	for _, s := range services {
		if s.ServiceName == "" {
			continue
		}
		if s.PriceSAR != "" {
			items = append(items, fmt.Sprintf("%s - %s ريال", s.ServiceName, s.PriceSAR))
		} else {
			items = append(items, s.ServiceName)
		}
	}
	if len(items) == 0 {
		return noServicesReply
	}
	return "💰 الخدمات المتاحة:\n\n" + numbered(items, "\n")
}

func branchesReply(branches []clinicdata.Branch) string {
	var items []string
	for _, b := range branches {
		if b.BranchName == "" {
			continue
		}
		line := b.BranchName
		switch {
		case b.Address != "" && b.City != "":
			line += " - " + b.Address + ", " + b.City
		case b.Address != "":
			line += " - " + b.Address
		}
		items = append(items, line)
	}
	if len(items) == 0 {
		return noBranchesReply
	}
	return "📍 الفروع:\n\n" + numbered(items, "\n")
}

// routerSpecialties maps normalized specialty keywords to display names for
// the direct doctor-list reply.
var routerSpecialties = []struct {
	keyword string
	display string
}{
	{"اسنان", "أسنان"},
	{"جلدية", "جلدية"},
	{"نساء", "نساء وولادة"},
	{"ولادة", "نساء وولادة"},
	{"اطفال", "أطفال"},
	{"عظام", "عظام"},
	{"باطنية", "باطنية"},
}

func filterDoctorsBySpecialty(doctors []clinicdata.Doctor, norm string) (string, []clinicdata.Doctor) {
	for _, sp := range routerSpecialties {
		if !strings.Contains(norm, sp.keyword) {
			continue
		}
		var filtered []clinicdata.Doctor
		for _, d := range doctors {
			if arabic.Normalize(d.Specialty) == sp.keyword {
				filtered = append(filtered, d)
			}
		}
		if len(filtered) > 0 {
			return sp.display, filtered
		}
	}
	return "", nil
}
