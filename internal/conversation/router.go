package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bluedeem/clinic-bot/internal/agent"
	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/booking"
	"github.com/bluedeem/clinic-bot/internal/clinicdata"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/intent"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

// Classifier resolves one message to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string) intent.Result
}

// BookingFlow is the slice of the booking manager the router drives.
type BookingFlow interface {
	InProgress(ctx context.Context, userID, platform string) (bool, error)
	ProcessMessage(ctx context.Context, userID, platform, message string) (string, bool, error)
	Start(ctx context.Context, userID, platform string, seed []entities.Entity) (string, error)
	Cancel(ctx context.Context, userID, platform string) (bool, error)
}

// Responder produces model-backed replies.
type Responder interface {
	Reply(ctx context.Context, req agent.Request) agent.Reply
}

// DataGateway is the reference data the router's direct templates read.
type DataGateway interface {
	Doctors(ctx context.Context) ([]clinicdata.Doctor, error)
	Branches(ctx context.Context) ([]clinicdata.Branch, error)
	Services(ctx context.Context) ([]clinicdata.Service, error)
	BranchByID(ctx context.Context, branchID string) (*clinicdata.Branch, error)
	FindDoctorByName(ctx context.Context, name string) (*clinicdata.Doctor, error)
}

// Explicit booking phrases start the flow regardless of classifier output.
var explicitBookingPhrases = []string{
	"ابي احجز", "اريد احجز", "حاب احجز", "ابي احجز عنده", "اريد احجز عنده",
}

// A bare mention of booking is a question about booking, not a request.
var bareBookingWords = map[string]bool{"حجز": true, "احجز": true, "موعد": true}

var simpleGreetings = map[string]bool{"هلا": true, "اهلا": true, "مرحبا": true, "هاي": true}

// Router orchestrates one inbound message: booking state first, then intent
// classification, then direct templates or the agent. Turns of the same
// identity are serialized with a keyed mutex so history and booking state stay
// ordered under concurrent deliveries.
type Router struct {
	classifier Classifier
	booking    BookingFlow
	agent      Responder
	data       DataGateway
	history    *Manager
	logger     *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRouter wires the router over its collaborators.
func NewRouter(classifier Classifier, bookingFlow BookingFlow, responder Responder, data DataGateway, history *Manager, logger *logging.Logger) *Router {
	return &Router{
		classifier: classifier,
		booking:    bookingFlow,
		agent:      responder,
		data:       data,
		history:    history,
		logger:     logger,
		locks:      map[string]*sync.Mutex{},
	}
}

// Process handles one inbound message and returns the reply text. Every path
// records the turn exactly once before returning.
func (r *Router) Process(ctx context.Context, userID, platform, message string) (string, error) {
	id := Identity{UserID: userID, Platform: platform}
	mu := r.identityLock(id.Key())
	mu.Lock()
	defer mu.Unlock()

	inProgress, err := r.booking.InProgress(ctx, userID, platform)
	if err != nil {
		return "", err
	}
	if inProgress {
		if booking.IsCancelMessage(message) {
			if _, err := r.booking.Cancel(ctx, userID, platform); err != nil {
				return "", err
			}
			return r.finish(ctx, id, message, cancelReply), nil
		}
		reply, _, err := r.booking.ProcessMessage(ctx, userID, platform, message)
		if err != nil {
			return "", err
		}
		return r.finish(ctx, id, message, reply), nil
	}

	history := r.history.Recent(ctx, id)
	result := r.classifier.Classify(ctx, message)
	intentName := result.Intent
	norm := arabic.Normalize(message)

	if intentName == intent.IntentUnclear {
		if !isSimpleGreeting(norm) {
			return r.finish(ctx, id, message, r.agentReply(ctx, message, intentName, result.Entities, history)), nil
		}
		intentName = intent.IntentGreeting
	}

	if intentName == intent.IntentGeneral {
		return r.finish(ctx, id, message, r.agentReply(ctx, message, intentName, result.Entities, history)), nil
	}

	if explicit := containsAnyWord(norm, explicitBookingPhrases); explicit || intentName == intent.IntentBooking {
		doctorName, _ := entities.First(result.Entities, entities.TypeDoctorName)
		if doctorName == "" {
			doctorName = r.doctorFromHistory(ctx, history)
		}

		start := explicit || result.NextAction == intent.ActionStartBooking
		if bareBookingWords[norm] {
			start = false
		} else if !start && doctorName != "" && strings.Contains(norm, "عند") {
			start = true
		}

		if start {
			seed := result.Entities
			if doctorName != "" {
				seed = []entities.Entity{{Type: entities.TypeDoctorName, Value: doctorName, Confidence: 1}}
			}
			question, err := r.booking.Start(ctx, userID, platform, seed)
			if err != nil {
				return "", err
			}
			reply := question
			if doctorName != "" {
				reply = seededBookingReply(doctorName)
			}
			return r.finish(ctx, id, message, reply), nil
		}
		// Informational booking question, let the agent explain.
		return r.finish(ctx, id, message, r.agentReply(ctx, message, intentName, result.Entities, history)), nil
	}

	switch intentName {
	case intent.IntentHours:
		reply := noHoursReply
		if branches, err := r.data.Branches(ctx); err == nil {
			reply = hoursReply(branches)
		}
		return r.finish(ctx, id, message, reply), nil
	case intent.IntentThanks:
		return r.finish(ctx, id, message, thanksReply), nil
	case intent.IntentGoodbye:
		return r.finish(ctx, id, message, goodbyeReply), nil
	case intent.IntentContact:
		reply := noContactReply
		if branches, err := r.data.Branches(ctx); err == nil {
			reply = contactReply(branches)
		}
		return r.finish(ctx, id, message, reply), nil
	}

	if intentName == intent.IntentFAQ && !containsAnyWord(norm, []string{"كيف", "طريقة", "خطوات"}) {
		return r.finish(ctx, id, message, faqMenuReply), nil
	}

	if intentName == intent.IntentDoctor || intentName == intent.IntentService || intentName == intent.IntentBranch {
		if direct := r.respondDirectly(ctx, intentName, result.Entities, norm); direct != "" {
			return r.finish(ctx, id, message, direct), nil
		}
	}

	return r.finish(ctx, id, message, r.agentReply(ctx, message, intentName, result.Entities, history)), nil
}

// respondDirectly builds a templated reply for list/detail questions. An empty
// return falls through to the agent.
func (r *Router) respondDirectly(ctx context.Context, intentName string, ents []entities.Entity, norm string) string {
	switch intentName {
	case intent.IntentDoctor:
		doctors, err := r.data.Doctors(ctx)
		if err != nil {
			return ""
		}
		if len(doctors) == 0 {
			return noDoctorsReply
		}

		if display, filtered := filterDoctorsBySpecialty(doctors, norm); display != "" {
			return doctorListReply("🏥 أطباء "+display+":", filtered)
		}

		name, _ := entities.First(ents, entities.TypeDoctorName)
		if name == "" {
			name = matchDoctorNameInText(doctors, norm)
		}
		if name != "" {
			doctor, err := r.data.FindDoctorByName(ctx, name)
			if err != nil {
				return ""
			}
			if doctor == nil {
				return fmt.Sprintf("⚠️ ما لقيت طبيب باسم '%s'.", name)
			}
			var branch *clinicdata.Branch
			if doctor.BranchID != "" {
				branch, _ = r.data.BranchByID(ctx, doctor.BranchID)
			}
			return doctorDetailReply(doctor, branch)
		}
		return doctorListReply("🏥 الأطباء المتاحون:", doctors)

	case intent.IntentService:
		services, err := r.data.Services(ctx)
		if err != nil {
			return ""
		}
		return servicesReply(services)

	case intent.IntentBranch:
		branches, err := r.data.Branches(ctx)
		if err != nil {
			return ""
		}
		return branchesReply(branches)
	}
	return ""
}

// doctorFromHistory scans the newest turns for a known doctor name, so
// "ابي احجز عنده" right after asking about a doctor books with that doctor.
func (r *Router) doctorFromHistory(ctx context.Context, history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	doctors, err := r.data.Doctors(ctx)
	if err != nil {
		return ""
	}

	window := history
	if len(window) > 5 {
		window = window[len(window)-5:]
	}
	for i := len(window) - 1; i >= 0; i-- {
		text := arabic.Normalize(window[i].Message) + " " + arabic.Normalize(window[i].Response)
		for _, d := range doctors {
			if doctorNameInText(d.DoctorName, text) {
				return d.DoctorName
			}
		}
	}
	return ""
}

func (r *Router) agentReply(ctx context.Context, message, intentName string, ents []entities.Entity, history []Turn) string {
	return r.agent.Reply(ctx, agent.Request{
		Message:        message,
		Intent:         intentName,
		Entities:       ents,
		HistorySummary: Summarize(history, DefaultSummaryChars),
		HasHistory:     len(history) > 0,
	}).ResponseText
}

func (r *Router) finish(ctx context.Context, id Identity, message, reply string) string {
	r.history.RecordTurn(ctx, id, message, reply)
	return reply
}

func (r *Router) identityLock(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	mu, ok := r.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		r.locks[key] = mu
	}
	return mu
}

// matchDoctorNameInText finds the first doctor whose name parts appear in the
// normalized message.
func matchDoctorNameInText(doctors []clinicdata.Doctor, norm string) string {
	for _, d := range doctors {
		if doctorNameInText(d.DoctorName, norm) {
			return d.DoctorName
		}
	}
	return ""
}

// doctorNameInText reports whether a distinctive part of the doctor's name
// (anything longer than three runes, titles stripped) occurs in the text.
func doctorNameInText(doctorName, text string) bool {
	for _, part := range strings.Fields(arabic.Normalize(doctorName)) {
		switch part {
		case "د.", "د", "دكتور", "دكتورة", "دكتوره":
			continue
		}
		if utf8.RuneCountInString(part) > 3 && strings.Contains(text, part) {
			return true
		}
	}
	return false
}

func isSimpleGreeting(norm string) bool {
	compact := strings.NewReplacer(" ", "", "،", "", ",", "").Replace(norm)
	if simpleGreetings[compact] {
		return true
	}
	return strings.HasPrefix(compact, "هلا") || strings.HasPrefix(compact, "اهلا")
}
