package intent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/llm"
	"github.com/bluedeem/clinic-bot/internal/observability/metrics"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// DoctorDirectory provides the doctor roster for name hinting. Lookups are
// best effort; an unavailable roster never blocks classification.
type DoctorDirectory interface {
	Doctors(ctx context.Context) ([]clinicdata.Doctor, error)
}

// Classifier resolves messages to intents. High-confidence rules answer most
// traffic without a model call; the rest goes to a structured completion with
// a closed-vocabulary schema, cached per normalized message.
type Classifier struct {
	llm     llm.Client
	model   string
	redis   *redis.Client
	ttl     time.Duration
	doctors DoctorDirectory
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewClassifier builds a classifier. redisClient and doctors may be nil.
func NewClassifier(llmClient llm.Client, model string, redisClient *redis.Client, ttl time.Duration, doctors DoctorDirectory, m *metrics.Metrics, logger *logging.Logger) *Classifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Classifier{
		llm:     llmClient,
		model:   model,
		redis:   redisClient,
		ttl:     ttl,
		doctors: doctors,
		metrics: m,
		logger:  logger,
	}
}

const intentSystemPrompt = `أنت مصنف نوايا لشات بوت عيادة. أعطِ نتيجة JSON مطابقة للـ schema فقط.

النوايا: greeting, doctor, branch, service, booking, hours, contact, faq, thanks, goodbye, general, unclear
الكيانات: doctor_name, service_name, branch_id, phone, date, time
next_action: respond_directly, ask_clarification, use_llm, start_booking

قواعد:
- التحية (هلا/اهلا/مرحبا/السلام عليكم/هاي) => greeting + use_llm
- الشكر (شكرا/تمام/يعطيك العافية) => thanks + use_llm
- الوداع (باي/مع السلامة) => goodbye + use_llm
- أوقات الدوام (متى تفتحون/اوقات الدوام) => hours + use_llm
- الفروع/الموقع (وين/الموقع/عنوان/فرع/فروع) => branch + use_llm
- الخدمات/الأسعار (خدمة/سعر/تكلفة/بكم) => service + use_llm
- الحجز: إذا طلب صريح (حجز/احجز/موعد) => booking
  - إذا ما فيه تفاصيل كافية => booking + ask_clarification
  - إذا فيه (doctor_name أو service_name أو date/time) => booking + start_booking
- الأطباء: (مين الأطباء/قائمة الأطباء/أبي طبيب/أفضل دكتور/أحسن طبيب) => doctor + use_llm
- unclear فقط إذا الرسالة ما تنطبق على شيء.`

var knownIntents = map[string]bool{
	IntentGreeting: true, IntentDoctor: true, IntentBranch: true,
	IntentService: true, IntentBooking: true, IntentHours: true,
	IntentContact: true, IntentFAQ: true, IntentThanks: true,
	IntentGoodbye: true, IntentGeneral: true, IntentUnclear: true,
}

// intentSchema is the strict response schema for the classification call.
var intentSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"intent", "entities", "confidence", "next_action"},
	"properties": map[string]any{
		"intent": map[string]any{
			"type": "string",
			"enum": []string{
				IntentGreeting, IntentDoctor, IntentBranch, IntentService,
				IntentBooking, IntentHours, IntentContact, IntentFAQ,
				IntentThanks, IntentGoodbye, IntentGeneral, IntentUnclear,
			},
		},
		"entities": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"type", "value", "confidence"},
				"properties": map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": []string{
							entities.TypeDoctorName, entities.TypeServiceName,
							entities.TypeBranchID, entities.TypePhone,
							entities.TypeDate, entities.TypeTime,
						},
					},
					"value":      map[string]any{"type": "string"},
					"confidence": map[string]any{"type": "number"},
				},
			},
		},
		"confidence":  map[string]any{"type": "number"},
		"next_action": map[string]any{
			"type": "string",
			"enum": []string{ActionRespondDirectly, ActionAskClarification, ActionUseLLM, ActionStartBooking},
		},
	},
}

// Classify resolves one message. It never fails: model errors degrade to the
// reduced rule table, and an empty message yields unclear.
func (c *Classifier) Classify(ctx context.Context, message string) Result {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return Result{Intent: IntentUnclear, Entities: []entities.Entity{}, Confidence: 0.5, NextAction: ActionAskClarification}
	}

	norm := arabic.Normalize(msg)
	cacheKey := "intent:" + shaKey(norm)
	if cached, ok := c.fromCache(ctx, cacheKey); ok {
		c.metrics.ObserveClassification(cached.Intent, "cache")
		return cached
	}

	extracted := entities.Extract(msg)

	if res, ok := c.scoreRules(ctx, norm, extracted); ok {
		c.metrics.ObserveClassification(res.Intent, "rules")
		c.toCache(ctx, cacheKey, res)
		return res
	}

	res, err := c.classifyLLM(ctx, msg, extracted)
	if err != nil {
		c.logger.Warn("model classification failed, using rule fallback", "error", err)
		c.metrics.ObserveLLMCall("intent", "error")
		res = c.fallback(ctx, norm, extracted)
		c.metrics.ObserveClassification(res.Intent, "fallback")
	} else {
		c.metrics.ObserveLLMCall("intent", "ok")
		c.metrics.ObserveClassification(res.Intent, "llm")
	}
	c.toCache(ctx, cacheKey, res)
	return res
}

// scoreRules runs the keyword scorer and returns a result when any intent
// crosses its confidence threshold.
func (c *Classifier) scoreRules(ctx context.Context, norm string, extracted []entities.Entity) (Result, bool) {
	clean := arabic.CleanKey(norm)
	scores := map[string]int{}

	if cleanInSet(clean, simpleGreetings) || strings.HasPrefix(norm, "هلا") || strings.HasPrefix(norm, "اهلا") {
		scores[IntentGreeting] += 12
	}
	if containsAny(norm, greetingHints) {
		scores[IntentGreeting] += 7
	}
	if containsAny(norm, thanksHints) {
		scores[IntentThanks] += 10
	}
	if containsAny(norm, goodbyeHints) {
		scores[IntentGoodbye] += 10
	}
	if containsAny(norm, bookingWords) {
		scores[IntentBooking] += 9
		if containsAny(norm, bookingStrict) {
			scores[IntentBooking] += 2
		}
	}
	if containsAny(norm, hoursHints) {
		scores[IntentHours] += 9
	}
	if containsAny(norm, branchHints) {
		scores[IntentBranch] += 7
	}
	if containsAny(norm, serviceHints) {
		scores[IntentService] += 6
	}
	if containsAny(norm, doctorListHints) || (strings.Contains(norm, "مين") && containsAny(norm, []string{"اطباء", "دكاتره", "دكاترة"})) {
		scores[IntentDoctor] += 9
	}
	if strings.Contains(norm, "مين") && containsAny(norm, bestDoctorHints) {
		if containsAny(norm, doctorWords) || containsAny(norm, specialtyKeys) {
			scores[IntentDoctor] += 8
		}
	}
	if containsAny(norm, wantVerbs) {
		if containsAny(norm, specialtyKeys) || containsAny(norm, doctorWords) {
			scores[IntentDoctor] += 7
		}
	}
	if containsAny(norm, generalHints) {
		scores[IntentGeneral] += 8
	}

	switch {
	case scores[IntentGreeting] >= 10:
		return Result{Intent: IntentGreeting, Entities: extracted, Confidence: 0.98, NextAction: ActionUseLLM}, true
	case scores[IntentThanks] >= 10:
		return Result{Intent: IntentThanks, Entities: extracted, Confidence: 0.97, NextAction: ActionUseLLM}, true
	case scores[IntentGoodbye] >= 10:
		return Result{Intent: IntentGoodbye, Entities: extracted, Confidence: 0.97, NextAction: ActionUseLLM}, true
	case scores[IntentBooking] >= 9:
		withDoctor := c.maybeAddDoctorName(ctx, norm, extracted)
		return Result{Intent: IntentBooking, Entities: withDoctor, Confidence: 0.92, NextAction: bookingAction(withDoctor)}, true
	case scores[IntentHours] >= 9:
		return Result{Intent: IntentHours, Entities: extracted, Confidence: 0.92, NextAction: ActionUseLLM}, true
	}

	// Short messages get a reduced-threshold ladder instead of a model call.
	if len(strings.Fields(norm)) <= 2 {
		switch {
		case scores[IntentDoctor] >= 7:
			return Result{Intent: IntentDoctor, Entities: extracted, Confidence: 0.88, NextAction: ActionUseLLM}, true
		case scores[IntentBranch] >= 6:
			return Result{Intent: IntentBranch, Entities: extracted, Confidence: 0.86, NextAction: ActionUseLLM}, true
		case scores[IntentService] >= 6:
			return Result{Intent: IntentService, Entities: extracted, Confidence: 0.86, NextAction: ActionUseLLM}, true
		}
		return Result{Intent: IntentGeneral, Entities: extracted, Confidence: 0.75, NextAction: ActionUseLLM}, true
	}

	switch {
	case scores[IntentDoctor] >= 8:
		return Result{Intent: IntentDoctor, Entities: extracted, Confidence: 0.9, NextAction: ActionUseLLM}, true
	case scores[IntentBranch] >= 7 && strings.Contains(norm, "وين"):
		return Result{Intent: IntentBranch, Entities: extracted, Confidence: 0.88, NextAction: ActionUseLLM}, true
	case scores[IntentService] >= 7:
		return Result{Intent: IntentService, Entities: extracted, Confidence: 0.86, NextAction: ActionUseLLM}, true
	case scores[IntentGeneral] >= 8:
		return Result{Intent: IntentGeneral, Entities: extracted, Confidence: 0.86, NextAction: ActionUseLLM}, true
	}
	return Result{}, false
}

func (c *Classifier) classifyLLM(ctx context.Context, msg string, extracted []entities.Entity) (Result, error) {
	resp, err := c.llm.Complete(ctx, llm.Request{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: intentSystemPrompt},
			{Role: llm.RoleUser, Content: msg},
		},
		Schema: &llm.Schema{Name: "intent_classification", Schema: intentSchema},
	})
	if err != nil {
		return Result{}, err
	}

	var res Result
	if err := json.Unmarshal([]byte(resp.Content), &res); err != nil {
		return Result{}, err
	}
	if !knownIntents[res.Intent] {
		return Result{}, errUnknownIntent(res.Intent)
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}

	res.Entities = entities.Merge(res.Entities, extracted)
	if res.Intent == IntentBooking {
		res.NextAction = bookingAction(res.Entities)
	}
	return res, nil
}

// fallback is the reduced rule table used when the model call fails.
func (c *Classifier) fallback(ctx context.Context, norm string, extracted []entities.Entity) Result {
	clean := arabic.CleanKey(norm)

	switch {
	case cleanInSet(clean, simpleGreetings) || containsAny(norm, greetingHints):
		return Result{Intent: IntentGreeting, Entities: extracted, Confidence: 0.85, NextAction: ActionUseLLM}
	case containsAny(norm, thanksHints):
		return Result{Intent: IntentThanks, Entities: extracted, Confidence: 0.85, NextAction: ActionUseLLM}
	case containsAny(norm, goodbyeHints):
		return Result{Intent: IntentGoodbye, Entities: extracted, Confidence: 0.85, NextAction: ActionUseLLM}
	case containsAny(norm, bookingWords):
		withDoctor := c.maybeAddDoctorName(ctx, norm, extracted)
		return Result{Intent: IntentBooking, Entities: withDoctor, Confidence: 0.8, NextAction: bookingAction(withDoctor)}
	case containsAny(norm, hoursHints):
		return Result{Intent: IntentHours, Entities: extracted, Confidence: 0.8, NextAction: ActionUseLLM}
	case containsAny(norm, doctorListHints) || (strings.Contains(norm, "مين") && containsAny(norm, []string{"اطباء", "دكاتره", "دكاترة"})):
		return Result{Intent: IntentDoctor, Entities: extracted, Confidence: 0.8, NextAction: ActionUseLLM}
	case containsAny(norm, branchHints):
		return Result{Intent: IntentBranch, Entities: extracted, Confidence: 0.75, NextAction: ActionUseLLM}
	case containsAny(norm, serviceHints):
		return Result{Intent: IntentService, Entities: extracted, Confidence: 0.75, NextAction: ActionUseLLM}
	}
	return Result{Intent: IntentUnclear, Entities: extracted, Confidence: 0.5, NextAction: ActionAskClarification}
}

// maybeAddDoctorName fuzzy-matches a doctor mention into the entity list when
// the message carries a doctor trigger word and no doctor entity yet.
func (c *Classifier) maybeAddDoctorName(ctx context.Context, norm string, list []entities.Entity) []entities.Entity {
	if _, ok := entities.First(list, entities.TypeDoctorName); ok {
		return list
	}
	if !containsAny(norm, []string{"دكتور", "دكتوره", "دكتورة", "عند", "مع"}) {
		return list
	}
	if c.doctors == nil {
		return list
	}
	doctors, err := c.doctors.Doctors(ctx)
	if err != nil || len(doctors) == 0 {
		return list
	}

	hint := extractNameHint(norm)
	bestScore := 0
	var bestName string
	for _, d := range doctors {
		if score := clinicdata.Similarity(hint, d.DoctorName); score >= 72 && score > bestScore {
			bestScore, bestName = score, d.DoctorName
		}
	}
	if bestName == "" {
		return list
	}
	out := make([]entities.Entity, len(list), len(list)+1)
	copy(out, list)
	return append(out, entities.Entity{Type: entities.TypeDoctorName, Value: bestName, Confidence: 0.9})
}

// extractNameHint returns up to three tokens following a doctor trigger word,
// skipping consecutive triggers ("مع دكتورة سارة" hints "سارة"), or the whole
// message when no trigger is present.
func extractNameHint(norm string) string {
	tokens := strings.Fields(norm)
	for i, t := range tokens {
		if !inSet(t, nameHintTriggers) || i+1 >= len(tokens) {
			continue
		}
		start := i + 1
		for start < len(tokens) && inSet(tokens[start], nameHintTriggers) {
			start++
		}
		if start >= len(tokens) {
			break
		}
		end := start + 3
		if end > len(tokens) {
			end = len(tokens)
		}
		return strings.Join(tokens[start:end], " ")
	}
	return norm
}

func (c *Classifier) fromCache(ctx context.Context, key string) (Result, bool) {
	if c.redis == nil {
		return Result{}, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("intent cache read failed", "error", err)
		}
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (c *Classifier) toCache(ctx context.Context, key string, res Result) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("intent cache write failed", "error", err)
	}
}

func shaKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type errUnknownIntent string

func (e errUnknownIntent) Error() string {
	return "intent: model returned unknown intent " + string(e)
}
