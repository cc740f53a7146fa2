// Package intent classifies inbound chat messages with scoring rules first
// and a cached structured model call when the rules are not confident.
package intent

import "github.com/bluedeem/clinic-bot/internal/entities"

// Intents form a closed vocabulary.
const (
	IntentGreeting = "greeting"
	IntentDoctor   = "doctor"
	IntentBranch   = "branch"
	IntentService  = "service"
	IntentBooking  = "booking"
	IntentHours    = "hours"
	IntentContact  = "contact"
	IntentFAQ      = "faq"
	IntentThanks   = "thanks"
	IntentGoodbye  = "goodbye"
	IntentGeneral  = "general"
	IntentUnclear  = "unclear"
)

// Next actions the router dispatches on.
const (
	ActionRespondDirectly  = "respond_directly"
	ActionAskClarification = "ask_clarification"
	ActionUseLLM           = "use_llm"
	ActionStartBooking     = "start_booking"
)

// Result is the classification outcome for one message.
type Result struct {
	Intent     string            `json:"intent"`
	Entities   []entities.Entity `json:"entities"`
	Confidence float64           `json:"confidence"`
	NextAction string            `json:"next_action"`
}

// bookingAction picks the booking follow-up from available entities. A doctor,
// service, date or time mention is enough to start collecting details.
func bookingAction(list []entities.Entity) string {
	for _, e := range list {
		switch e.Type {
		case entities.TypeDoctorName, entities.TypeServiceName, entities.TypeDate, entities.TypeTime:
			return ActionStartBooking
		}
	}
	return ActionAskClarification
}
