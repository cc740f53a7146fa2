package intent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/llm"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

type stubLLM struct {
	mu      sync.Mutex
	calls   int
	content string
	err     error
}

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content}, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubDoctors struct {
	doctors []clinicdata.Doctor
}

func (s *stubDoctors) Doctors(context.Context) ([]clinicdata.Doctor, error) {
	return s.doctors, nil
}

func newTestClassifier(t *testing.T, model *stubLLM) *Classifier {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	docs := &stubDoctors{doctors: []clinicdata.Doctor{
		{DoctorID: "DR-1", DoctorName: "د. سارة العتيبي", Specialty: "جلدية"},
	}}
	return NewClassifier(model, "gpt-4o-mini", redisClient, 5*time.Minute, docs, nil, logging.Default())
}

func TestClassifyCannedPairs(t *testing.T) {
	model := &stubLLM{err: errors.New("must not be called")}
	c := newTestClassifier(t, model)
	ctx := context.Background()

	tests := []struct {
		message string
		intent  string
	}{
		{"هلا", IntentGreeting},
		{"شكرا", IntentThanks},
		{"باي", IntentGoodbye},
		{"ابي احجز موعد", IntentBooking},
		{"مين الاطباء اللي عندكم", IntentDoctor},
		{"متى تفتحون", IntentHours},
	}
	for _, tt := range tests {
		res := c.Classify(ctx, tt.message)
		assert.Equal(t, tt.intent, res.Intent, "message %q", tt.message)
		assert.GreaterOrEqual(t, res.Confidence, 0.0, "message %q", tt.message)
		assert.LessOrEqual(t, res.Confidence, 1.0, "message %q", tt.message)
	}
	assert.Zero(t, model.callCount(), "rule-resolved intents must not hit the model")
}

func TestClassifyStableUnderRepeatedCalls(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{err: errors.New("down")})
	ctx := context.Background()

	first := c.Classify(ctx, "متى تفتحون")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, c.Classify(ctx, "متى تفتحون"))
	}
}

func TestClassifyEmptyMessage(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{})
	res := c.Classify(context.Background(), "   ")
	assert.Equal(t, IntentUnclear, res.Intent)
	assert.Equal(t, ActionAskClarification, res.NextAction)
	assert.InDelta(t, 0.5, res.Confidence, 0.001)
}

func TestBookingNextActionFollowsEntities(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{err: errors.New("must not be called")})
	ctx := context.Background()

	bare := c.Classify(ctx, "ابي احجز موعد")
	assert.Equal(t, ActionAskClarification, bare.NextAction)

	withDate := c.Classify(ctx, "ابي احجز موعد بكرا")
	assert.Equal(t, ActionStartBooking, withDate.NextAction)
}

func TestBookingDoctorNameHint(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{err: errors.New("must not be called")})

	res := c.Classify(context.Background(), "ابغى احجز موعد مع دكتورة ساره العتيبي")
	require.Equal(t, IntentBooking, res.Intent)
	name, ok := entities.First(res.Entities, entities.TypeDoctorName)
	require.True(t, ok, "doctor name entity expected")
	assert.Equal(t, "د. سارة العتيبي", name)
	assert.Equal(t, ActionStartBooking, res.NextAction)
}

func TestClassifyModelPathMergesEntities(t *testing.T) {
	model := &stubLLM{content: `{
		"intent": "booking",
		"entities": [{"type": "service_name", "value": "ليزر", "confidence": 0.8}],
		"confidence": 0.9,
		"next_action": "use_llm"
	}`}
	c := newTestClassifier(t, model)

	// No scorer rule fires for this phrasing, so the model path runs.
	res := c.Classify(context.Background(), "ودي اسوي جلسة ليزر الاسبوع الجاي عندكم")
	require.Equal(t, IntentBooking, res.Intent)

	_, ok := entities.First(res.Entities, entities.TypeServiceName)
	assert.True(t, ok)
	assert.Equal(t, ActionStartBooking, res.NextAction, "booking next_action is overridden from entities")
	assert.Equal(t, 1, model.callCount())

	// Cached on repeat.
	c.Classify(context.Background(), "ودي اسوي جلسة ليزر الاسبوع الجاي عندكم")
	assert.Equal(t, 1, model.callCount())
}

func TestClassifyModelFailureFallsBack(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{err: errors.New("rate limited")})

	res := c.Classify(context.Background(), "هل تتعاملون مع شركات التامين الطبي")
	assert.Equal(t, IntentUnclear, res.Intent)
	assert.Equal(t, ActionAskClarification, res.NextAction)
}

func TestClassifyMalformedModelOutputFallsBack(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{content: "not json"})

	res := c.Classify(context.Background(), "هل تتعاملون مع شركات التامين الطبي")
	assert.Equal(t, IntentUnclear, res.Intent)
}

func TestShortMessageLadder(t *testing.T) {
	c := newTestClassifier(t, &stubLLM{err: errors.New("must not be called")})
	ctx := context.Background()

	branch := c.Classify(ctx, "وين فروعكم")
	assert.Equal(t, IntentBranch, branch.Intent)

	service := c.Classify(ctx, "كم سعر")
	assert.Equal(t, IntentService, service.Intent)

	tiny := c.Classify(ctx, "طيب")
	assert.Equal(t, IntentGeneral, tiny.Intent)
}
