package client

import (
	"context"
	"log/slog"
	"strings"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/parse"
)

// TeleworkRequest is the intake service's representation of a telework request.
type TeleworkRequest struct {
	ID                  int64  `json:"id"`
	UserID              int64  `json:"userId"`
	TravailType         string `json:"travailType"`
	TeletravailDate     string `json:"teletravailDate"`
	TravailMaison       string `json:"travailMaison"`
	SelectedPays        string `json:"selectedPays"`
	SelectedGouvernorat string `json:"selectedGouvernorat"`
	Reason              string `json:"reason"`
	Status              string `json:"status"`
}

// ToSnapshot converts the wire record. An unparseable date is left zero so
// that reconciliation rejects the snapshot instead of guessing a day.
func (r TeleworkRequest) ToSnapshot(ctx context.Context) model.TeleworkRequestSnapshot {
	date, err := parse.RequestDate(r.TeletravailDate)
	if err != nil && r.TeletravailDate != "" {
		logging.FromContext(ctx, nil).WarnContext(ctx, "ignoring unparseable telework date",
			slog.Int64("telework_request_id", r.ID),
			slog.String("raw", r.TeletravailDate),
		)
	}
	return model.TeleworkRequestSnapshot{
		RequestID:   r.ID,
		UserID:      r.UserID,
		WorkType:    r.TravailType,
		Date:        date,
		IsHomeBased: parse.HomeBased(r.TravailMaison),
		Country:     r.SelectedPays,
		Region:      r.SelectedGouvernorat,
		Reason:      r.Reason,
		Status:      parse.RequestStatus(r.Status),
	}
}

// Snapshots converts a batch of wire records.
func Snapshots(ctx context.Context, requests []TeleworkRequest) []model.TeleworkRequestSnapshot {
	out := make([]model.TeleworkRequestSnapshot, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.ToSnapshot(ctx))
	}
	return out
}

type publicUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TeamMemberResponse is the identity service's view of a team member.
type TeamMemberResponse struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmployeeName string `json:"employeeName"`
	Role         string `json:"role"`
}

// ToMember prefers employeeName, then "first last" when both are known.
func (m TeamMemberResponse) ToMember() model.TeamMember {
	name := strings.TrimSpace(m.EmployeeName)
	if name == "" {
		first, last := strings.TrimSpace(m.FirstName), strings.TrimSpace(m.LastName)
		if first != "" && last != "" {
			name = first + " " + last
		}
	}
	return model.TeamMember{UserID: m.ID, Name: name, Role: m.Role}
}
