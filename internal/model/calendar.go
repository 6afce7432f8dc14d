package model

// WorkStatus is where a team member works on a calendar day.
type WorkStatus string

const (
	WorkStatusTelework WorkStatus = "TELETRAVAIL"
	WorkStatusPending  WorkStatus = "PENDING"
	WorkStatusOffice   WorkStatus = "OFFICE"
)

// TeamMember is a directory user belonging to a team.
type TeamMember struct {
	UserID int64
	// Name is empty when the directory holds no name for the user.
	Name string
	Role string
}

// TeamCalendar shows every member of a team day by day.
type TeamCalendar struct {
	TeamName  string               `json:"teamName"`
	StartDate Date                 `json:"startDate"`
	EndDate   Date                 `json:"endDate"`
	Members   []TeamMemberCalendar `json:"teamMembers"`
}

// TeamMemberCalendar is one row of a TeamCalendar.
type TeamMemberCalendar struct {
	UserID        int64         `json:"userId"`
	EmployeeName  string        `json:"employeeName"`
	Role          string        `json:"role"`
	DailyStatuses []DailyStatus `json:"dailyStatuses"`
}

// DailyStatus is a member's status on one day. RequestID is set when a
// telework request exists for that day.
type DailyStatus struct {
	Date      Date       `json:"date"`
	Status    WorkStatus `json:"status"`
	RequestID *int64     `json:"requestId,omitempty"`
}
