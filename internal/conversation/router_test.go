package conversation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluedeem/clinic-bot/internal/agent"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/intent"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

type stubClassifier struct {
	calls  int
	result intent.Result
}

func (s *stubClassifier) Classify(context.Context, string) intent.Result {
	s.calls++
	return s.result
}

type stubBooking struct {
	inProgress   bool
	processCalls int
	processReply string
	startCalls   int
	startSeed    []entities.Entity
	cancelCalls  int
}

func (s *stubBooking) InProgress(context.Context, string, string) (bool, error) {
	return s.inProgress, nil
}

func (s *stubBooking) ProcessMessage(context.Context, string, string, string) (string, bool, error) {
	s.processCalls++
	return s.processReply, false, nil
}

func (s *stubBooking) Start(_ context.Context, _, _ string, seed []entities.Entity) (string, error) {
	s.startCalls++
	s.startSeed = seed
	return "ما اسمك؟", nil
}

func (s *stubBooking) Cancel(context.Context, string, string) (bool, error) {
	s.cancelCalls++
	return true, nil
}

type stubResponder struct {
	calls   int
	lastReq agent.Request
	reply   agent.Reply
}

func (s *stubResponder) Reply(_ context.Context, req agent.Request) agent.Reply {
	s.calls++
	s.lastReq = req
	if s.reply.ResponseText == "" {
		return agent.Reply{ResponseText: "رد من المساعد"}
	}
	return s.reply
}

type stubGateway struct {
	doctors  []clinicdata.Doctor
	branches []clinicdata.Branch
	services []clinicdata.Service
}

func (s *stubGateway) Doctors(context.Context) ([]clinicdata.Doctor, error)   { return s.doctors, nil }
func (s *stubGateway) Branches(context.Context) ([]clinicdata.Branch, error)  { return s.branches, nil }
func (s *stubGateway) Services(context.Context) ([]clinicdata.Service, error) { return s.services, nil }

func (s *stubGateway) BranchByID(_ context.Context, id string) (*clinicdata.Branch, error) {
	for i := range s.branches {
		if s.branches[i].BranchID == id {
			return &s.branches[i], nil
		}
	}
	return nil, nil
}

func (s *stubGateway) FindDoctorByName(_ context.Context, name string) (*clinicdata.Doctor, error) {
	for i := range s.doctors {
		if clinicdata.Similarity(name, s.doctors[i].DoctorName) >= clinicdata.MinSimilarity {
			return &s.doctors[i], nil
		}
	}
	return nil, nil
}

type routerFixture struct {
	router     *Router
	classifier *stubClassifier
	booking    *stubBooking
	responder  *stubResponder
	store      *InMemoryTurnStore
}

func newRouterFixture(t *testing.T, result intent.Result, gateway *stubGateway) *routerFixture {
	t.Helper()
	if gateway == nil {
		gateway = &stubGateway{}
	}
	f := &routerFixture{
		classifier: &stubClassifier{result: result},
		booking:    &stubBooking{processReply: "ما رقم جوالك؟"},
		responder:  &stubResponder{},
		store:      NewInMemoryTurnStore(),
	}
	history := NewManager(f.store, logging.Default())
	f.router = NewRouter(f.classifier, f.booking, f.responder, gateway, history, logging.Default())
	return f
}

func (f *routerFixture) recordedTurns(t *testing.T) []Turn {
	t.Helper()
	turns, err := f.store.Recent(context.Background(), Identity{UserID: "user-1", Platform: "whatsapp"}, 100)
	require.NoError(t, err)
	return turns
}

func process(t *testing.T, f *routerFixture, message string) string {
	t.Helper()
	reply, err := f.router.Process(context.Background(), "user-1", "whatsapp", message)
	require.NoError(t, err)
	return reply
}

func TestBranchListAnsweredFromTemplate(t *testing.T) {
	gateway := &stubGateway{branches: []clinicdata.Branch{
		{BranchID: "BR-1", BranchName: "فرع العليا", Address: "شارع التحلية", City: "الرياض"},
		{BranchID: "BR-2", BranchName: "فرع الروضة", Address: "طريق الملك", City: "جدة"},
	}}
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentBranch, Confidence: 0.9, NextAction: intent.ActionRespondDirectly}, gateway)

	reply := process(t, f, "وين فروعكم")

	assert.Contains(t, reply, "📍 الفروع:")
	assert.Contains(t, reply, "فرع العليا")
	assert.Contains(t, reply, "فرع الروضة")
	assert.Zero(t, f.responder.calls, "template replies must not touch the model")
}

func TestEveryPathRecordsTurnOnce(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentThanks, Confidence: 0.95}, nil)

	reply := process(t, f, "شكرا")

	turns := f.recordedTurns(t)
	require.Len(t, turns, 1)
	assert.Equal(t, "شكرا", turns[0].Message)
	assert.Equal(t, reply, turns[0].Response)
}

func TestBookingInProgressDelegatesWithoutClassifying(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentGeneral}, nil)
	f.booking.inProgress = true

	reply := process(t, f, "احمد")

	assert.Equal(t, "ما رقم جوالك؟", reply)
	assert.Equal(t, 1, f.booking.processCalls)
	assert.Zero(t, f.classifier.calls, "classification is skipped mid-flow")
	require.Len(t, f.recordedTurns(t), 1)
}

func TestCancelDuringBooking(t *testing.T) {
	f := newRouterFixture(t, intent.Result{}, nil)
	f.booking.inProgress = true

	reply := process(t, f, "الغاء")

	assert.Equal(t, "تم إلغاء الحجز. كيف أقدر أساعدك؟", reply)
	assert.Equal(t, 1, f.booking.cancelCalls)
	assert.Zero(t, f.booking.processCalls)
}

func TestExplicitBookingStartsFlow(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentBooking, NextAction: intent.ActionStartBooking}, nil)

	reply := process(t, f, "ابي احجز موعد بكرا")

	assert.Equal(t, 1, f.booking.startCalls)
	assert.Equal(t, "ما اسمك؟", reply)
	assert.Zero(t, f.responder.calls)
}

func TestBareBookingWordIsAQuestion(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentBooking, NextAction: intent.ActionStartBooking}, nil)

	process(t, f, "حجز")

	assert.Zero(t, f.booking.startCalls, "a bare word is not a booking request")
	assert.Equal(t, 1, f.responder.calls)
}

func TestBookingPicksDoctorFromHistory(t *testing.T) {
	gateway := &stubGateway{doctors: []clinicdata.Doctor{
		{DoctorID: "DR-1", DoctorName: "د. سارة العتيبي", Specialty: "جلدية"},
	}}
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentBooking, NextAction: intent.ActionAskClarification}, gateway)

	f.store.Append(context.Background(), Identity{UserID: "user-1", Platform: "whatsapp"}, Turn{
		Message:  "مين دكتورة الجلدية عندكم",
		Response: "عندنا د. سارة العتيبي تخصص جلدية",
	})

	reply := process(t, f, "ابي احجز عندها")

	require.Equal(t, 1, f.booking.startCalls)
	seeded, ok := entities.First(f.booking.startSeed, entities.TypeDoctorName)
	require.True(t, ok)
	assert.Equal(t, "د. سارة العتيبي", seeded)
	assert.Equal(t, "✅ حجز عند د. سارة العتيبي\n\nما اسمك؟", reply)
}

func TestUnclearShortGreetingRechecked(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentUnclear, Confidence: 0.4}, nil)

	process(t, f, "هلا والله")

	require.Equal(t, 1, f.responder.calls)
	assert.Equal(t, intent.IntentGreeting, f.responder.lastReq.Intent)
}

func TestUnclearFallsThroughToAgent(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentUnclear, Confidence: 0.4}, nil)

	process(t, f, "وش الوضع عندكم بالضبط")

	require.Equal(t, 1, f.responder.calls)
	assert.Equal(t, intent.IntentUnclear, f.responder.lastReq.Intent)
}

func TestHoursTemplate(t *testing.T) {
	gateway := &stubGateway{branches: []clinicdata.Branch{
		{BranchName: "فرع العليا", HoursWeekdays: "9ص - 9م", HoursWeekend: "4م - 10م"},
	}}
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentHours}, gateway)

	reply := process(t, f, "متى تفتحون")

	assert.Contains(t, reply, "⏰ أوقات الدوام:")
	assert.Contains(t, reply, "الأسبوع: 9ص - 9م")
	assert.Contains(t, reply, "نهاية الأسبوع: 4م - 10م")
	assert.Zero(t, f.responder.calls)
}

func TestFAQMenuWithoutHowPhrasing(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentFAQ}, nil)

	reply := process(t, f, "عندي سؤال")

	assert.Contains(t, reply, "• أطباء")
	assert.Zero(t, f.responder.calls)
}

func TestFAQWithHowPhrasingGoesToAgent(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentFAQ}, nil)

	process(t, f, "كيف اوصل لكم")

	assert.Equal(t, 1, f.responder.calls)
}

func TestDoctorDetailTemplate(t *testing.T) {
	gateway := &stubGateway{
		doctors: []clinicdata.Doctor{{
			DoctorID:        "DR-1",
			DoctorName:      "د. سارة العتيبي",
			Specialty:       "جلدية",
			BranchID:        "BR-1",
			Days:            "الأحد - الخميس",
			TimeFrom:        "09:00",
			TimeTo:          "17:00",
			ExperienceYears: "12",
		}},
		branches: []clinicdata.Branch{{BranchID: "BR-1", BranchName: "فرع العليا", Address: "شارع التحلية", City: "الرياض"}},
	}
	result := intent.Result{
		Intent:   intent.IntentDoctor,
		Entities: []entities.Entity{{Type: entities.TypeDoctorName, Value: "سارة العتيبي", Confidence: 0.9}},
	}
	f := newRouterFixture(t, result, gateway)

	reply := process(t, f, "وش دوام دكتورة ساره العتيبي")

	assert.True(t, strings.HasPrefix(reply, "✅ د. سارة العتيبي"))
	assert.Contains(t, reply, "التخصص: جلدية")
	assert.Contains(t, reply, "⏰ الخبرة: 12 سنة")
	assert.Contains(t, reply, "فرع العليا - شارع التحلية, الرياض")
	assert.Contains(t, reply, "⏰ الوقت: 09:00 - 17:00")
	assert.Zero(t, f.responder.calls)
}

func TestDoctorSpecialtyList(t *testing.T) {
	gateway := &stubGateway{doctors: []clinicdata.Doctor{
		{DoctorName: "د. سارة العتيبي", Specialty: "جلدية"},
		{DoctorName: "د. خالد الحربي", Specialty: "أسنان"},
	}}
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentDoctor}, gateway)

	reply := process(t, f, "مين اطباء الاسنان عندكم")

	assert.Contains(t, reply, "🏥 أطباء أسنان:")
	assert.Contains(t, reply, "د. خالد الحربي (أسنان)")
	assert.NotContains(t, reply, "سارة")
}

func TestServiceListTemplate(t *testing.T) {
	gateway := &stubGateway{services: []clinicdata.Service{
		{ServiceName: "تنظيف بشرة", PriceSAR: "300"},
		{ServiceName: "تبييض أسنان"},
	}}
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentService}, gateway)

	reply := process(t, f, "وش الخدمات عندكم")

	assert.Contains(t, reply, "💰 الخدمات المتاحة:")
	assert.Contains(t, reply, "1. تنظيف بشرة - 300 ريال")
	assert.Contains(t, reply, "2. تبييض أسنان")
}

func TestGeneralGoesToAgentWithHistorySummary(t *testing.T) {
	f := newRouterFixture(t, intent.Result{Intent: intent.IntentGeneral}, nil)

	f.store.Append(context.Background(), Identity{UserID: "user-1", Platform: "whatsapp"}, Turn{
		Message:  "وين فرع العليا",
		Response: "📍 الفروع:\n\n1. فرع العليا",
	})

	process(t, f, "وهل يفتح الجمعة؟")

	require.Equal(t, 1, f.responder.calls)
	assert.True(t, f.responder.lastReq.HasHistory)
	assert.Contains(t, f.responder.lastReq.HistorySummary, "فرع العليا")
}
