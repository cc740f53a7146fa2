// Package booking implements the multi-step appointment collection flow and
// its durable state and ticket storage.
package booking

import "time"

// Flow states in strict forward order.
const (
	StateName     = "name"
	StatePhone    = "phone"
	StateService  = "service"
	StateBranch   = "branch"
	StateDateTime = "date_time"
	StateDone     = "done"
)

// Record is the single in-progress booking for one identity. Data accumulates
// monotonically across turns and is only discarded with the record itself.
type Record struct {
	UserID    string
	Platform  string
	State     string
	Data      map[string]string
	UpdatedAt time.Time
}

// Ticket is the immutable outcome of a completed flow.
type Ticket struct {
	BookingID        string    `json:"booking_id"`
	UserID           string    `json:"user_id"`
	Platform         string    `json:"platform"`
	PatientName      string    `json:"patient_name"`
	PatientPhone     string    `json:"patient_phone"`
	ServiceRequested string    `json:"service_requested"`
	DoctorName       string    `json:"doctor_name,omitempty"`
	PreferredBranch  string    `json:"preferred_branch,omitempty"`
	PreferredDate    string    `json:"preferred_date,omitempty"`
	PreferredTime    string    `json:"preferred_time,omitempty"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
