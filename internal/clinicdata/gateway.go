package clinicdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bluedeem/clinic-bot/internal/dateparse"
	"github.com/bluedeem/clinic-bot/pkg/logging"
)

var doctorsColumns = []string{
	"doctor_id", "doctor_name", "specialty", "branch_id", "days",
	"time_from", "time_to", "phone", "email", "experience_years",
	"qualifications", "notes",
}

var branchesColumns = []string{
	"branch_id", "branch_name", "address", "city", "phone", "email",
	"hours_weekdays", "hours_weekend", "maps_url", "features",
	"parking", "accessibility",
}

var servicesColumns = []string{
	"service_id", "service_name", "specialty", "description", "price_sar",
	"price_range", "available_branch_ids", "duration_minutes",
	"preparation_required", "popular",
}

var availabilityColumns = []string{
	"date", "doctor_id", "branch_id", "available", "note", "last_updated",
}

// SheetNames maps the four datasets to their tab names in the spreadsheet.
type SheetNames struct {
	Doctors      string
	Branches     string
	Services     string
	Availability string
}

// Gateway is a read-through cache over the reference dataset. Cache misses
// trigger a fetch from the upstream source; doctors, branches and services
// must be non-empty, availability may legitimately be empty.
type Gateway struct {
	source Source
	redis  *redis.Client
	sheets SheetNames
	ttl    time.Duration
	parser *dateparse.Parser
	logger *logging.Logger
}

// NewGateway builds a gateway over source with the given cache TTL.
func NewGateway(source Source, redisClient *redis.Client, sheets SheetNames, ttl time.Duration, parser *dateparse.Parser, logger *logging.Logger) *Gateway {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Gateway{
		source: source,
		redis:  redisClient,
		sheets: sheets,
		ttl:    ttl,
		parser: parser,
		logger: logger,
	}
}

// Doctors returns all doctor rows, fetching on cache miss.
func (g *Gateway) Doctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	err := g.cached(ctx, "clinicdata:doctors", &out, func() (any, error) {
		rows, err := g.fetchValidated(ctx, g.sheets.Doctors, doctorsColumns, "doctors", true)
		if err != nil {
			return nil, err
		}
		doctors := make([]Doctor, 0, len(rows))
		for _, r := range rows {
			doctors = append(doctors, Doctor{
				DoctorID:        strings.TrimSpace(r["doctor_id"]),
				DoctorName:      strings.TrimSpace(r["doctor_name"]),
				Specialty:       strings.TrimSpace(r["specialty"]),
				BranchID:        strings.TrimSpace(r["branch_id"]),
				Days:            strings.TrimSpace(r["days"]),
				TimeFrom:        strings.TrimSpace(r["time_from"]),
				TimeTo:          strings.TrimSpace(r["time_to"]),
				Phone:           strings.TrimSpace(r["phone"]),
				Email:           strings.TrimSpace(r["email"]),
				ExperienceYears: strings.TrimSpace(r["experience_years"]),
				Qualifications:  strings.TrimSpace(r["qualifications"]),
				Notes:           strings.TrimSpace(r["notes"]),
			})
		}
		return doctors, nil
	})
	return out, err
}

// Branches returns all branch rows, fetching on cache miss.
func (g *Gateway) Branches(ctx context.Context) ([]Branch, error) {
	var out []Branch
	err := g.cached(ctx, "clinicdata:branches", &out, func() (any, error) {
		rows, err := g.fetchValidated(ctx, g.sheets.Branches, branchesColumns, "branches", true)
		if err != nil {
			return nil, err
		}
		branches := make([]Branch, 0, len(rows))
		for _, r := range rows {
			branches = append(branches, Branch{
				BranchID:      strings.TrimSpace(r["branch_id"]),
				BranchName:    strings.TrimSpace(r["branch_name"]),
				Address:       strings.TrimSpace(r["address"]),
				City:          strings.TrimSpace(r["city"]),
				Phone:         strings.TrimSpace(r["phone"]),
				Email:         strings.TrimSpace(r["email"]),
				HoursWeekdays: strings.TrimSpace(r["hours_weekdays"]),
				HoursWeekend:  strings.TrimSpace(r["hours_weekend"]),
				MapsURL:       strings.TrimSpace(r["maps_url"]),
				Features:      ParseList(r["features"]),
				Parking:       ParseBool(r["parking"]),
				Accessibility: ParseBool(r["accessibility"]),
			})
		}
		return branches, nil
	})
	return out, err
}

// Services returns all service rows, fetching on cache miss.
func (g *Gateway) Services(ctx context.Context) ([]Service, error) {
	var out []Service
	err := g.cached(ctx, "clinicdata:services", &out, func() (any, error) {
		rows, err := g.fetchValidated(ctx, g.sheets.Services, servicesColumns, "services", true)
		if err != nil {
			return nil, err
		}
		services := make([]Service, 0, len(rows))
		for _, r := range rows {
			services = append(services, Service{
				ServiceID:           strings.TrimSpace(r["service_id"]),
				ServiceName:         strings.TrimSpace(r["service_name"]),
				Specialty:           strings.TrimSpace(r["specialty"]),
				Description:         strings.TrimSpace(r["description"]),
				PriceSAR:            strings.TrimSpace(r["price_sar"]),
				PriceRange:          strings.TrimSpace(r["price_range"]),
				AvailableBranchIDs:  ParseList(r["available_branch_ids"]),
				DurationMinutes:     strings.TrimSpace(r["duration_minutes"]),
				PreparationRequired: ParseBool(r["preparation_required"]),
				Popular:             ParseBool(r["popular"]),
			})
		}
		return services, nil
	})
	return out, err
}

// availability returns the full availability dataset (all dates).
func (g *Gateway) availability(ctx context.Context) ([]Availability, error) {
	var out []Availability
	err := g.cached(ctx, "clinicdata:availability", &out, func() (any, error) {
		rows, err := g.fetchValidated(ctx, g.sheets.Availability, availabilityColumns, "availability", false)
		if err != nil {
			return nil, err
		}
		records := make([]Availability, 0, len(rows))
		for _, r := range rows {
			records = append(records, Availability{
				Date:        strings.TrimSpace(r["date"]),
				DoctorID:    strings.TrimSpace(r["doctor_id"]),
				BranchID:    strings.TrimSpace(r["branch_id"]),
				Available:   ParseBool(r["available"]),
				Note:        strings.TrimSpace(r["note"]),
				LastUpdated: strings.TrimSpace(r["last_updated"]),
			})
		}
		return records, nil
	})
	return out, err
}

// DoctorAvailability returns availability records for a date, optionally
// filtered by doctor. The date accepts the same colloquial expressions as the
// date parser; unparseable dates are matched verbatim.
func (g *Gateway) DoctorAvailability(ctx context.Context, date, doctorID string) ([]Availability, error) {
	if g.parser != nil {
		if parsed, err := g.parser.Parse(date); err == nil {
			date = parsed.Format("2006-01-02")
		}
	}

	all, err := g.availability(ctx)
	if err != nil {
		return nil, err
	}
	var out []Availability
	for _, rec := range all {
		if date != "" && rec.Date != date {
			continue
		}
		if doctorID != "" && rec.DoctorID != doctorID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// DoctorAvailabilityToday returns the doctor's availability record for the
// current Riyadh date, or nil when none exists.
func (g *Gateway) DoctorAvailabilityToday(ctx context.Context, doctorID string) (*Availability, error) {
	records, err := g.DoctorAvailability(ctx, "اليوم", doctorID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// BranchByID returns the branch with the given id, or nil.
func (g *Gateway) BranchByID(ctx context.Context, branchID string) (*Branch, error) {
	branches, err := g.Branches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		if branches[i].BranchID == branchID {
			return &branches[i], nil
		}
	}
	return nil, nil
}

// FindDoctorByName fuzzy-matches a free-text name against doctor names and
// returns the best match at or above the similarity floor, or nil.
func (g *Gateway) FindDoctorByName(ctx context.Context, name string) (*Doctor, error) {
	doctors, err := g.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	best, bestScore := -1, 0
	for i := range doctors {
		if score := Similarity(name, doctors[i].DoctorName); score >= MinSimilarity && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil, nil
	}
	return &doctors[best], nil
}

// FindServiceByName fuzzy-matches a free-text name against service names and
// returns the best match at or above the similarity floor, or nil.
func (g *Gateway) FindServiceByName(ctx context.Context, name string) (*Service, error) {
	services, err := g.Services(ctx)
	if err != nil {
		return nil, err
	}
	best, bestScore := -1, 0
	for i := range services {
		if score := Similarity(name, services[i].ServiceName); score >= MinSimilarity && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return nil, nil
	}
	return &services[best], nil
}

// cached loads dest from the cache key, falling back to fetch and writing
// the result back with the gateway TTL. A broken cache never blocks a fetch.
func (g *Gateway) cached(ctx context.Context, key string, dest any, fetch func() (any, error)) error {
	if g.redis != nil {
		data, err := g.redis.Get(ctx, key).Bytes()
		if err == nil {
			if err := json.Unmarshal(data, dest); err == nil {
				return nil
			}
			g.logger.Warn("discarding malformed cache entry", "key", key)
		} else if err != redis.Nil {
			g.logger.Warn("reference data cache read failed", "key", key, "error", err)
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("clinicdata: marshal %s: %w", key, err)
	}
	if g.redis != nil {
		if err := g.redis.Set(ctx, key, data, g.ttl).Err(); err != nil {
			g.logger.Warn("reference data cache write failed", "key", key, "error", err)
		}
	}
	return json.Unmarshal(data, dest)
}

func (g *Gateway) fetchValidated(ctx context.Context, sheet string, columns []string, dataset string, required bool) ([]map[string]string, error) {
	rows, err := g.source.Fetch(ctx, sheet)
	if err != nil {
		return nil, fmt.Errorf("clinicdata: load %s: %w", dataset, err)
	}
	if len(rows) == 0 {
		if required {
			return nil, fmt.Errorf("clinicdata: %s dataset is empty", dataset)
		}
		return nil, nil
	}
	for _, col := range columns {
		if _, ok := rows[0][col]; !ok {
			return nil, fmt.Errorf("clinicdata: %s dataset missing column %q", dataset, col)
		}
	}
	return rows, nil
}
