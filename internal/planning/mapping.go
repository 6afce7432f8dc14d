package planning

import (
	"telework-planning-backend/internal/model"
	"telework-planning-backend/internal/parse"
)

// EntryFromSnapshot derives the planning fields of a request snapshot. The
// status is only set when the snapshot carries an explicit decision.
func EntryFromSnapshot(snap model.TeleworkRequestSnapshot, userName string) model.PlanningEntry {
	return model.PlanningEntry{
		UserID:   snap.UserID,
		UserName: userName,
		Date:     snap.Date,
		Status:   snap.Status,
		Location: parse.Location(snap.IsHomeBased, snap.Country, snap.Region),
		WorkType: parse.WorkType(snap.WorkType),
		Reason:   snap.Reason,
	}
}

// AutomaticEntry builds a synthetic entry for a scheduler-chosen day.
func AutomaticEntry(userID int64, userName string, date model.Date) model.PlanningEntry {
	return model.PlanningEntry{
		UserID:   userID,
		UserName: userName,
		Date:     date,
		Status:   model.StatusPlanned,
		Location: model.LocationHome,
		WorkType: model.WorkTypeRegular,
		Reason:   model.AutomaticReason,
	}
}
