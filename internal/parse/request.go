package parse

import (
	"fmt"
	"regexp"
	"strings"

	"telework-planning-backend/internal/model"
)

// Upstream dates arrive as plain days, ISO date-times, or "YYYY-MM-DD hh:mm:ss".
var dateRe = regexp.MustCompile(`^\s*(\d{4}-\d{2}-\d{2})(?:[T ].*)?\s*$`)

// RequestDate extracts the calendar day from an upstream date value.
func RequestDate(raw string) (model.Date, error) {
	m := dateRe.FindStringSubmatch(raw)
	if m == nil {
		return model.Date{}, fmt.Errorf("unable to parse date: %q", raw)
	}
	d, err := model.ParseDate(m[1])
	if err != nil {
		return model.Date{}, fmt.Errorf("unable to parse date: %q: %w", raw, err)
	}
	return d, nil
}

// HomeBased reports whether an upstream "works from home" flag means home.
// Only an explicit negative answer means away; a missing flag counts as home.
func HomeBased(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "non", "no", "false", "n", "0":
		return false
	default:
		return true
	}
}

// WorkType maps the upstream request type onto a planning work type.
func WorkType(raw string) model.WorkType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "exceptionnel", "exceptional", "exceptionnelle":
		return model.WorkTypeExceptional
	default:
		return model.WorkTypeRegular
	}
}

// RequestStatus maps an upstream decision onto a planning status. The empty
// result means the request carries no decision yet.
func RequestStatus(raw string) model.PlanningStatus {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "APPROVED", "CONFIRMED", "ACCEPTED":
		return model.StatusApproved
	case "REJECTED", "REFUSED":
		return model.StatusRejected
	case "PENDING", "PLANNED":
		return model.StatusPlanned
	default:
		return ""
	}
}

// Location renders the human-readable place a user works from.
func Location(home bool, country, region string) string {
	if home {
		return model.LocationHome
	}
	country, region = strings.TrimSpace(country), strings.TrimSpace(region)
	switch {
	case country != "" && region != "":
		return country + " - " + region
	case country != "":
		return country
	case region != "":
		return region
	default:
		return ""
	}
}
