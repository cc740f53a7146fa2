// Package agent generates user-facing replies: canned answers for trivial
// intents, structured model calls for everything else, deterministic
// fallbacks on failure. It never returns an error to the caller.
package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/intent"
	"github.com/bluedeem/clinic-bot/internal/llm"
	"github.com/bluedeem/clinic-bot/internal/observability/metrics"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// Reply is the structured agent output.
type Reply struct {
	ResponseText       string   `json:"response_text"`
	NeedsClarification bool     `json:"needs_clarification"`
	SuggestedQuestions []string `json:"suggested_questions"`
}

// Request carries everything the agent needs for one reply. HistorySummary is
// a prompt-ready digest of recent turns; HasHistory disables the response
// cache since context-dependent replies must not be shared.
type Request struct {
	Message        string
	Intent         string
	Entities       []entities.Entity
	HistorySummary string
	HasHistory     bool
}

// DataProvider supplies reference data for prompt context blocks.
type DataProvider interface {
	Doctors(ctx context.Context) ([]clinicdata.Doctor, error)
	Branches(ctx context.Context) ([]clinicdata.Branch, error)
	Services(ctx context.Context) ([]clinicdata.Service, error)
	BranchByID(ctx context.Context, branchID string) (*clinicdata.Branch, error)
	FindDoctorByName(ctx context.Context, name string) (*clinicdata.Doctor, error)
	FindServiceByName(ctx context.Context, name string) (*clinicdata.Service, error)
	DoctorAvailability(ctx context.Context, date, doctorID string) ([]clinicdata.Availability, error)
}

// Agent builds prompts and parses structured model replies.
type Agent struct {
	llm     llm.Client
	model   string
	redis   *redis.Client
	ttl     time.Duration
	data    DataProvider
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// New builds an agent. redisClient may be nil to disable the response cache.
func New(llmClient llm.Client, model string, redisClient *redis.Client, ttl time.Duration, data DataProvider, m *metrics.Metrics, logger *logging.Logger) *Agent {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Agent{
		llm:     llmClient,
		model:   model,
		redis:   redisClient,
		ttl:     ttl,
		data:    data,
		metrics: m,
		logger:  logger,
	}
}

// replySchema is the strict output schema for the agent call.
var replySchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"response_text", "needs_clarification", "suggested_questions"},
	"properties": map[string]any{
		"response_text":       map[string]any{"type": "string"},
		"needs_clarification": map[string]any{"type": "boolean"},
		"suggested_questions": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
}

// Reply produces the response for one classified message. Failures degrade to
// intent-specific canned replies; the caller always gets usable text.
func (a *Agent) Reply(ctx context.Context, req Request) Reply {
	if canned, ok := cannedReply(req.Intent); ok {
		return canned
	}

	cacheKey := ""
	if !req.HasHistory {
		cacheKey = a.cacheKey(req)
		if cached, ok := a.fromCache(ctx, cacheKey); ok {
			return cached
		}
	}

	reply, err := a.generate(ctx, req)
	if err != nil {
		a.logger.Warn("agent model call failed, using fallback", "intent", req.Intent, "error", err)
		a.metrics.ObserveLLMCall("agent", "error")
		return fallbackReply(req.Intent, req.Message)
	}
	a.metrics.ObserveLLMCall("agent", "ok")

	if cacheKey != "" {
		a.toCache(ctx, cacheKey, reply)
	}
	return reply
}

func (a *Agent) generate(ctx context.Context, req Request) (Reply, error) {
	contextBlock := a.buildContext(ctx, req)

	var b strings.Builder
	fmt.Fprintf(&b, "الرسالة الحالية: %s\n", req.Message)
	if req.HistorySummary != "" {
		fmt.Fprintf(&b, "\nالمحادثة السابقة:\n%s\n", req.HistorySummary)
	}
	fmt.Fprintf(&b, "\nالنية: %s\n", req.Intent)
	if len(req.Entities) > 0 {
		if encoded, err := json.Marshal(req.Entities); err == nil {
			fmt.Fprintf(&b, "الكيانات: %s\n", encoded)
		}
	}
	if contextBlock != "" {
		fmt.Fprintf(&b, "\nالبيانات المتوفرة:\n%s\n", contextBlock)
	}
	b.WriteString("\nتعليمات: رد بلهجة نجدية طبيعية وودودة، 2-6 جمل حسب السؤال. " +
		"استخدم البيانات المتوفرة فقط ولا تخترع معلومات. " +
		"إذا البيانات ناقصة اسأل سؤال توضيحي واحد واقترح 2-4 خيارات.")

	resp, err := a.llm.Complete(ctx, llm.Request{
		Model: a.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: agentSystemPrompt},
			{Role: llm.RoleUser, Content: b.String()},
		},
		Temperature: 0.3,
		Schema:      &llm.Schema{Name: "agent_response", Schema: replySchema},
	})
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	if err := json.Unmarshal([]byte(resp.Content), &reply); err != nil {
		return Reply{}, fmt.Errorf("agent: parse reply: %w", err)
	}
	if strings.TrimSpace(reply.ResponseText) == "" {
		return Reply{}, fmt.Errorf("agent: empty reply text")
	}
	return reply, nil
}

// cacheKey derives the response cache key from intent, normalized message and
// a sorted entity signature.
func (a *Agent) cacheKey(req Request) string {
	sig := make([]string, 0, len(req.Entities))
	for _, e := range req.Entities {
		sig = append(sig, e.Type+":"+e.Value)
	}
	sort.Strings(sig)

	sum := sha256.Sum256([]byte(req.Intent + "|" + arabic.Normalize(req.Message) + "|" + strings.Join(sig, ",")))
	return "agent:" + hex.EncodeToString(sum[:])
}

func (a *Agent) fromCache(ctx context.Context, key string) (Reply, bool) {
	if a.redis == nil {
		return Reply{}, false
	}
	data, err := a.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			a.logger.Warn("agent cache read failed", "error", err)
		}
		return Reply{}, false
	}
	var reply Reply
	if err := json.Unmarshal(data, &reply); err != nil {
		return Reply{}, false
	}
	return reply, true
}

func (a *Agent) toCache(ctx context.Context, key string, reply Reply) {
	if a.redis == nil {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := a.redis.Set(ctx, key, data, a.ttl).Err(); err != nil {
		a.logger.Warn("agent cache write failed", "error", err)
	}
}

// cannedReply answers zero-context intents without a model call.
func cannedReply(intentName string) (Reply, bool) {
	switch intentName {
	case intent.IntentGreeting:
		return Reply{
			ResponseText:       "هلا والله 👋 شلون أقدر أخدمك؟ تبي أطباء ولا خدمات ولا فروع؟",
			NeedsClarification: true,
			SuggestedQuestions: []string{"أطباء", "خدمات", "فروع", "مواعيد الدوام", "حجز"},
		}, true
	case intent.IntentThanks:
		return Reply{
			ResponseText:       "العفو والله ✅ إذا تبي أي شي أنا حاضر.",
			NeedsClarification: false,
			SuggestedQuestions: []string{"أطباء", "خدمات", "فروع", "حجز"},
		}, true
	case intent.IntentGoodbye:
		return Reply{
			ResponseText:       "حياك الله 👋 بأي وقت تحتاجنا.",
			NeedsClarification: false,
			SuggestedQuestions: []string{},
		}, true
	}
	return Reply{}, false
}
