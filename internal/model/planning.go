package model

import (
	"fmt"
	"strings"
	"time"
)

// PlanningStatus is the lifecycle state of a planning entry.
type PlanningStatus string

const (
	StatusPlanned  PlanningStatus = "PLANNED"
	StatusApproved PlanningStatus = "APPROVED"
	StatusRejected PlanningStatus = "REJECTED"
)

// ParseStatus accepts the three planning statuses, case-insensitively.
func ParseStatus(raw string) (PlanningStatus, error) {
	switch s := PlanningStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPlanned, StatusApproved, StatusRejected:
		return s, nil
	default:
		return "", fmt.Errorf("unknown planning status %q", raw)
	}
}

// WorkType distinguishes regular telework days from exceptional ones.
type WorkType string

const (
	WorkTypeRegular     WorkType = "Regular"
	WorkTypeExceptional WorkType = "Exceptional"
)

const (
	LocationHome    = "Home"
	AutomaticReason = "Automatically generated"
)

// PlanningEntry is the derived calendar record for one user on one day.
type PlanningEntry struct {
	ID        int64          `gorm:"primaryKey" json:"id"`
	UserID    int64          `gorm:"not null;uniqueIndex:idx_planning_user_date,priority:1" json:"userId"`
	UserName  string         `gorm:"size:256" json:"userName"`
	Date      Date           `gorm:"column:planning_date;not null;uniqueIndex:idx_planning_user_date,priority:2;index" json:"planningDate"`
	Status    PlanningStatus `gorm:"column:planning_status;size:16;not null" json:"planningStatus"`
	Location  string         `gorm:"size:256" json:"location"`
	WorkType  WorkType       `gorm:"size:16;not null" json:"workType"`
	Reason    string         `gorm:"column:reasons;type:text" json:"reasons"`
	CreatedAt time.Time      `gorm:"not null;<-:create" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
}

// TableName keeps the table name stable regardless of the struct name.
func (PlanningEntry) TableName() string {
	return "telework_plannings"
}
