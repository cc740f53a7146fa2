// Package clinicdata serves the clinic reference dataset (doctors, branches,
// services, availability) through a read-through cache with fuzzy name lookup.
package clinicdata

import "strings"

// Doctor is one row of the doctors dataset.
type Doctor struct {
	DoctorID        string `json:"doctor_id"`
	DoctorName      string `json:"doctor_name"`
	Specialty       string `json:"specialty"`
	BranchID        string `json:"branch_id"`
	Days            string `json:"days"`
	TimeFrom        string `json:"time_from"`
	TimeTo          string `json:"time_to"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	ExperienceYears string `json:"experience_years"`
	Qualifications  string `json:"qualifications"`
	Notes           string `json:"notes"`
}

// Branch is one row of the branches dataset.
type Branch struct {
	BranchID      string   `json:"branch_id"`
	BranchName    string   `json:"branch_name"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	HoursWeekdays string   `json:"hours_weekdays"`
	HoursWeekend  string   `json:"hours_weekend"`
	MapsURL       string   `json:"maps_url"`
	Features      []string `json:"features"`
	Parking       bool     `json:"parking"`
	Accessibility bool     `json:"accessibility"`
}

// Service is one row of the services dataset.
type Service struct {
	ServiceID           string   `json:"service_id"`
	ServiceName         string   `json:"service_name"`
	Specialty           string   `json:"specialty"`
	Description         string   `json:"description"`
	PriceSAR            string   `json:"price_sar"`
	PriceRange          string   `json:"price_range"`
	AvailableBranchIDs  []string `json:"available_branch_ids"`
	DurationMinutes     string   `json:"duration_minutes"`
	PreparationRequired bool     `json:"preparation_required"`
	Popular             bool     `json:"popular"`
}

// Availability is one row of the doctor availability dataset.
type Availability struct {
	Date        string `json:"date"`
	DoctorID    string `json:"doctor_id"`
	BranchID    string `json:"branch_id"`
	Available   bool   `json:"available"`
	Note        string `json:"note"`
	LastUpdated string `json:"last_updated"`
}

// ParseBool interprets the truthy tokens used by boolean-like sheet columns.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "نعم", "yes", "true", "1", "y", "ن":
		return true
	}
	return false
}

// ParseList splits a comma-separated sheet column into trimmed items.
func ParseList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
