package planning

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/namecache"
)

// DefaultTeam is shown when no team, or "DEFAULT", is requested.
const DefaultTeam = "DEV"

// TeamDirectory lists team members. It never fails.
type TeamDirectory interface {
	TeamMembers(ctx context.Context, team string) []model.TeamMember
}

// TeamRequests lists a team's telework requests. It never fails.
type TeamRequests interface {
	ListTeamRequests(ctx context.Context, team string, start, end model.Date, authorization string) []model.TeleworkRequestSnapshot
}

// Calendar builds team calendars straight from the collaborators; nothing is
// read from or written to the planning store.
type Calendar struct {
	directory TeamDirectory
	requests  TeamRequests
	logger    *slog.Logger
	now       func() time.Time
}

func NewCalendar(directory TeamDirectory, requests TeamRequests, logger *slog.Logger) *Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calendar{
		directory: directory,
		requests:  requests,
		logger:    logger,
		now:       time.Now,
	}
}

// CurrentWeek returns Monday and Friday of the current week.
func (c *Calendar) CurrentWeek() (model.Date, model.Date) {
	monday := model.DateOf(c.now()).Monday()
	return monday, monday.AddDays(4)
}

// TeamCalendar lists every member of team with a status for each day in
// [start, end]. Unavailable collaborators give an empty calendar.
func (c *Calendar) TeamCalendar(ctx context.Context, team string, start, end model.Date, authorization string) (model.TeamCalendar, error) {
	if err := checkRange(start, end); err != nil {
		return model.TeamCalendar{}, err
	}
	team = strings.ToUpper(strings.TrimSpace(team))
	if team == "" || team == "DEFAULT" {
		team = DefaultTeam
	}
	logger := logging.FromContext(ctx, c.logger).With(slog.String("team", team))

	members := c.directory.TeamMembers(ctx, team)
	snaps := c.requests.ListTeamRequests(ctx, team, start, end, authorization)

	byUser := make(map[int64]map[model.Date]model.TeleworkRequestSnapshot, len(members))
	for _, snap := range snaps {
		if snap.UserID <= 0 || snap.Date.IsZero() {
			continue
		}
		days, ok := byUser[snap.UserID]
		if !ok {
			days = make(map[model.Date]model.TeleworkRequestSnapshot)
			byUser[snap.UserID] = days
		}
		// First request of a day wins.
		if _, dup := days[snap.Date]; !dup {
			days[snap.Date] = snap
		}
	}

	cal := model.TeamCalendar{
		TeamName:  team,
		StartDate: start,
		EndDate:   end,
		Members:   make([]model.TeamMemberCalendar, 0, len(members)),
	}
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = namecache.Placeholder(m.UserID)
		}
		row := model.TeamMemberCalendar{
			UserID:       m.UserID,
			EmployeeName: name,
			Role:         m.Role,
		}
		for d := start; !d.After(end); d = d.AddDays(1) {
			day := model.DailyStatus{Date: d, Status: model.WorkStatusOffice}
			if snap, ok := byUser[m.UserID][d]; ok {
				id := snap.RequestID
				day.RequestID = &id
				day.Status = workStatus(snap.Status)
			}
			row.DailyStatuses = append(row.DailyStatuses, day)
		}
		cal.Members = append(cal.Members, row)
	}

	if len(members) == 0 {
		logger.WarnContext(ctx, "no team members found, calendar is empty")
	}
	logger.InfoContext(ctx, "built team calendar",
		slog.Int("members", len(cal.Members)),
		slog.Int("requests", len(snaps)),
	)
	return cal, nil
}

// workStatus maps a request decision onto the calendar. Undecided requests
// show as pending; refused or unknown ones leave the member in the office.
func workStatus(s model.PlanningStatus) model.WorkStatus {
	switch s {
	case model.StatusApproved:
		return model.WorkStatusTelework
	case model.StatusPlanned:
		return model.WorkStatusPending
	default:
		return model.WorkStatusOffice
	}
}
