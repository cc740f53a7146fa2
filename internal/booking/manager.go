package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bluedeem/clinic-bot/internal/arabic"
	"github.com/bluedeem/clinic-bot/internal/dateparse"
	"github.com/bluedeem/clinic-bot/internal/entities"
	"github.com/bluedeem/clinic-bot/internal/observability/metrics"
	"github.com/bluedeem/clinic-bot/internal/phone"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

var skipTokens = map[string]bool{"تخطى": true, "تخطي": true, "skip": true, "لا": true, "": true}

var cancelKeywords = []string{"الغاء", "إلغاء", "خروج", "لا اريد", "لا أريد", "لا"}

// Manager drives the booking flow: one question per turn, validated phone,
// optional branch and date steps, ticket creation on completion.
type Manager struct {
	store   Store
	parser  *dateparse.Parser
	sync    SyncClient
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewManager builds a manager. sync may be nil when no external endpoint is
// configured.
func NewManager(store Store, parser *dateparse.Parser, sync SyncClient, m *metrics.Metrics, logger *logging.Logger) *Manager {
	return &Manager{
		store:   store,
		parser:  parser,
		sync:    sync,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// IsCancelMessage reports whether the message asks to abandon the flow.
func IsCancelMessage(message string) bool {
	norm := arabic.Normalize(message)
	for _, kw := range cancelKeywords {
		if strings.Contains(norm, arabic.Normalize(kw)) {
			return true
		}
	}
	return false
}

// InProgress reports whether the identity has an active booking.
func (m *Manager) InProgress(ctx context.Context, userID, platform string) (bool, error) {
	rec, err := m.store.GetState(ctx, userID, platform)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Start begins a fresh flow for the identity, replacing any existing one.
// Entities already extracted from the triggering message pre-seed the
// collected data, so the doctor mentioned in "احجز مع د. سارة" is kept.
func (m *Manager) Start(ctx context.Context, userID, platform string, seed []entities.Entity) (string, error) {
	if _, err := m.store.DeleteState(ctx, userID, platform); err != nil {
		return "", err
	}

	data := map[string]string{}
	if doctor, ok := entities.First(seed, entities.TypeDoctorName); ok {
		data["doctor_name"] = doctor
	}
	rec := &Record{UserID: userID, Platform: platform, State: StateName, Data: data}
	if err := m.store.SetState(ctx, rec); err != nil {
		return "", err
	}
	return Question(StateName, data), nil
}

// ProcessMessage advances the flow one turn. The returned flag reports flow
// completion (a ticket was created).
func (m *Manager) ProcessMessage(ctx context.Context, userID, platform, message string) (string, bool, error) {
	rec, err := m.store.GetState(ctx, userID, platform)
	if err != nil {
		return "", false, err
	}
	if rec == nil {
		reply, err := m.Start(ctx, userID, platform, nil)
		return reply, false, err
	}

	input := strings.TrimSpace(message)

	switch rec.State {
	case StateName:
		rec.Data["name"] = input
		rec.State = StatePhone
		if err := m.store.SetState(ctx, rec); err != nil {
			return "", false, err
		}
		return Question(StatePhone, rec.Data), false, nil

	case StatePhone:
		canonical, ok := phone.Normalize(input)
		if !ok {
			return "⚠️ الرقم مو صحيح. جرب مرة ثانية (مثال: 0501234567)", false, nil
		}
		rec.Data["phone"] = canonical
		rec.State = StateService
		if err := m.store.SetState(ctx, rec); err != nil {
			return "", false, err
		}
		return Question(StateService, rec.Data), false, nil

	case StateService:
		rec.Data["service"] = input
		if input == "" {
			// A pre-seeded doctor name stands in for the service label.
			rec.Data["service"] = rec.Data["doctor_name"]
		}
		rec.State = StateBranch
		if err := m.store.SetState(ctx, rec); err != nil {
			return "", false, err
		}
		return Question(StateBranch, rec.Data), false, nil

	case StateBranch:
		if !isSkip(input) {
			rec.Data["branch"] = input
		}
		rec.State = StateDateTime
		if err := m.store.SetState(ctx, rec); err != nil {
			return "", false, err
		}
		return Question(StateDateTime, rec.Data), false, nil

	case StateDateTime:
		if !isSkip(input) {
			if m.parser != nil {
				if parsed, err := m.parser.Parse(input); err == nil {
					rec.Data["date"] = parsed.Format("2006-01-02")
				} else {
					rec.Data["date"] = input
				}
			} else {
				rec.Data["date"] = input
			}
			rec.Data["time"] = input
		}
		reply, err := m.complete(ctx, rec)
		return reply, err == nil, err
	}

	return "شكراً لك!", true, nil
}

// Cancel clears the identity's flow, reporting whether one was active.
func (m *Manager) Cancel(ctx context.Context, userID, platform string) (bool, error) {
	return m.store.DeleteState(ctx, userID, platform)
}

// complete creates the ticket, notifies the sync endpoint best effort, and
// deletes the state record.
func (m *Manager) complete(ctx context.Context, rec *Record) (string, error) {
	now := m.now().UTC()
	userPrefix := rec.UserID
	if len(userPrefix) > 6 {
		userPrefix = userPrefix[:6]
	}

	ticket := &Ticket{
		BookingID:        fmt.Sprintf("BK-%s-%s", now.Format("20060102150405"), userPrefix),
		UserID:           rec.UserID,
		Platform:         rec.Platform,
		PatientName:      rec.Data["name"],
		PatientPhone:     rec.Data["phone"],
		ServiceRequested: rec.Data["service"],
		DoctorName:       rec.Data["doctor_name"],
		PreferredBranch:  rec.Data["branch"],
		PreferredDate:    rec.Data["date"],
		PreferredTime:    rec.Data["time"],
		Status:           "pending",
		Notes:            "حجز جديد من " + rec.Platform,
		CreatedAt:        now,
	}

	if err := m.store.SaveTicket(ctx, ticket); err != nil {
		return "", err
	}
	m.metrics.ObserveBookingCompleted()

	if m.sync != nil {
		if err := m.sync.Sync(ctx, ticket); err != nil {
			m.logger.Warn("booking sync failed", "booking_id", ticket.BookingID, "error", err)
		}
	}

	if _, err := m.store.DeleteState(ctx, rec.UserID, rec.Platform); err != nil {
		m.logger.Warn("booking state cleanup failed", "user_id", rec.UserID, "error", err)
	}
	return Confirmation(), nil
}

func isSkip(input string) bool {
	return skipTokens[strings.ToLower(strings.TrimSpace(input))]
}

// Question returns the prompt for a state.
func Question(state string, data map[string]string) string {
	switch state {
	case StateName:
		return "ما اسمك؟"
	case StatePhone:
		if name := data["name"]; name != "" {
			return fmt.Sprintf("مرحباً %s! ما رقم جوالك؟", name)
		}
		return "ما رقم جوالك؟"
	case StateService:
		return "أي خدمة تبي تحجز؟"
	case StateBranch:
		return "أي فرع تفضل؟ (أو اكتب 'تخطى' للتخطي)"
	case StateDateTime:
		return "متى تبي الموعد؟ (أو اكتب 'تخطى' للتخطي)"
	}
	return "شكراً لك!"
}

// Confirmation is the completion acknowledgement.
func Confirmation() string {
	return "✅ تم استلام طلبك وبنرجع لك نأكد الموعد"
}
