package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/intent"
)

const agentSystemPrompt = `أنت موظف استقبال محترف ودافئ في عيادة بلو ديم 🏥. مهمتك مساعدة المرضى بكل ود واحترافية.

شخصيتك وأسلوبك:
- محترف ودافئ، بلهجة نجدية طبيعية ومريحة
- تفاعلي واستباقي: اقترح خطوات تالية أو أسئلة مفيدة
- مرن في طول الرد حسب نوع السؤال

قواعد أساسية:
1) طول الرد 2-6 جمل حسب الحاجة
2) لا تخترع أي معلومة؛ استخدم فقط البيانات المتوفرة في الرسالة
3) إذا ما فيه بيانات كافية: اسأل سؤال توضيحي واحد + اقترح 2-4 خيارات
4) لا تبدأ الحجز إلا بطلب صريح ("ابي احجز"/"حجز"/"ابي موعد")
5) قوائم (أطباء/فروع/خدمات): اعرض 3-6 عناصر مختصرة مع أهم معلومة
6) إيموجي قليلة: ✅ 📍 ⏰ 💰 (حد أقصى 2)
7) إذا سأل المستخدم عن شيء ذكر سابقاً، استخدم المحادثة السابقة لفهم قصده

شكل الرد حسب النية:
- doctor: لو فيه اسم طبيب اعرض التخصص والفرع والأوقات. لو قائمة اعرض 3-6 أسماء. لأسئلة "مين احسن/افضل" اعرض الأطباء مع الخبرة والمؤهلات
- service: لو فيه اسم خدمة اعرض الوصف والسعر والمدة. لو قائمة اعرض 3-6 خدمات مع السعر
- branch: اعرض 2-4 فروع مع المدينة والعنوان ورقم التواصل
- hours: اعرض ساعات الدوام لكل فرع بوضوح
- booking: اشرح الخطوات واطلب الاسم والجوال والخدمة والوقت المفضل
- general/faq/unclear: جاوب اعتماداً على البيانات؛ لا تقل "ما قدرت أفهم"، اسأل سؤال توضيحي واحد فقط

مخرجاتك JSON يطابق الـ schema (response_text, needs_clarification, suggested_questions).`

// maxContextItems caps list sizes in prompt context blocks.
const maxContextItems = 12

var specialtyAliases = map[string]string{
	"اسنان": "أسنان", "الاسنان": "أسنان",
	"جلدية": "جلدية", "الجلدية": "جلدية",
	"نساء": "نساء وولادة", "ولادة": "نساء وولادة",
	"اطفال": "أطفال",
	"عظام": "عظام", "العظام": "عظام",
}

// buildContext assembles the reference data block for the prompt. All reads
// are best effort; a failed fetch just leaves its section out.
func (a *Agent) buildContext(ctx context.Context, req Request) string {
	if a.data == nil {
		return ""
	}

	norm := arabic.Normalize(req.Message)
	doctorName, _ := entities.First(req.Entities, entities.TypeDoctorName)
	serviceName, _ := entities.First(req.Entities, entities.TypeServiceName)
	dateStr, _ := entities.First(req.Entities, entities.TypeDate)

	// Follow-up and comparison questions get full lists instead of the cap.
	uncapped := containsAny(norm, "احسن", "افضل", "غيرهم", "غيرها", "عددهم", "عددها", "كلهم", "كلها", "بس هذولا")

	var parts []string
	switch req.Intent {
	case intent.IntentDoctor, intent.IntentBooking, intent.IntentUnclear, intent.IntentFAQ, intent.IntentGeneral:
		parts = append(parts, a.doctorContext(ctx, norm, doctorName, dateStr, uncapped)...)
		if req.Intent != intent.IntentDoctor {
			parts = append(parts, a.serviceContext(ctx, serviceName, uncapped)...)
		}
	case intent.IntentService:
		parts = append(parts, a.serviceContext(ctx, serviceName, uncapped)...)
	case intent.IntentBranch, intent.IntentHours, intent.IntentContact:
		parts = append(parts, a.branchContext(ctx, uncapped)...)
	}
	return strings.Join(parts, "\n\n")
}

func (a *Agent) doctorContext(ctx context.Context, norm, doctorName, dateStr string, uncapped bool) []string {
	var parts []string

	if doctorName != "" {
		doctor, err := a.data.FindDoctorByName(ctx, doctorName)
		if err == nil && doctor != nil {
			if encoded, err := json.Marshal(doctor); err == nil {
				parts = append(parts, "معلومات الطبيب المطلوب:\n"+string(encoded))
			}
			if branch, err := a.data.BranchByID(ctx, doctor.BranchID); err == nil && branch != nil {
				if encoded, err := json.Marshal(branch); err == nil {
					parts = append(parts, "معلومات الفرع:\n"+string(encoded))
				}
			}
			if dateStr != "" {
				if avail, err := a.data.DoctorAvailability(ctx, dateStr, doctor.DoctorID); err == nil && len(avail) > 0 {
					if encoded, err := json.Marshal(avail); err == nil {
						parts = append(parts, "التوفر:\n"+string(encoded))
					}
				}
			}
			return parts
		}
	}

	doctors, err := a.data.Doctors(ctx)
	if err != nil || len(doctors) == 0 {
		return parts
	}
	filtered := filterBySpecialty(doctors, norm)
	total := len(filtered)
	if !uncapped && len(filtered) > maxContextItems {
		filtered = filtered[:maxContextItems]
	}
	if encoded, err := json.Marshal(filtered); err == nil {
		parts = append(parts, fmt.Sprintf("الأطباء (عرض %d من أصل %d):\n%s", len(filtered), total, encoded))
	}
	return parts
}

func (a *Agent) serviceContext(ctx context.Context, serviceName string, uncapped bool) []string {
	var parts []string

	if serviceName != "" {
		service, err := a.data.FindServiceByName(ctx, serviceName)
		if err == nil && service != nil {
			if encoded, err := json.Marshal(service); err == nil {
				parts = append(parts, "معلومات الخدمة المطلوبة:\n"+string(encoded))
			}
			return parts
		}
	}

	services, err := a.data.Services(ctx)
	if err != nil || len(services) == 0 {
		return parts
	}
	total := len(services)
	if !uncapped && len(services) > maxContextItems {
		services = services[:maxContextItems]
	}
	if encoded, err := json.Marshal(services); err == nil {
		parts = append(parts, fmt.Sprintf("الخدمات (عرض %d من أصل %d):\n%s", len(services), total, encoded))
	}
	return parts
}

func (a *Agent) branchContext(ctx context.Context, uncapped bool) []string {
	branches, err := a.data.Branches(ctx)
	if err != nil || len(branches) == 0 {
		return nil
	}
	total := len(branches)
	if !uncapped && len(branches) > maxContextItems {
		branches = branches[:maxContextItems]
	}
	encoded, err := json.Marshal(branches)
	if err != nil {
		return nil
	}
	return []string{fmt.Sprintf("الفروع (عرض %d من أصل %d):\n%s", len(branches), total, encoded)}
}

func filterBySpecialty(doctors []clinicdata.Doctor, norm string) []clinicdata.Doctor {
	for alias, specialty := range specialtyAliases {
		if !strings.Contains(norm, arabic.Normalize(alias)) {
			continue
		}
		var filtered []clinicdata.Doctor
		for _, d := range doctors {
			if arabic.Normalize(d.Specialty) == arabic.Normalize(specialty) {
				filtered = append(filtered, d)
			}
		}
		if len(filtered) > 0 {
			return filtered
		}
	}
	return doctors
}

func containsAny(norm string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(norm, arabic.Normalize(w)) {
			return true
		}
	}
	return false
}
