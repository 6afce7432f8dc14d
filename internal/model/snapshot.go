package model

// TeleworkRequestSnapshot is an inbound, authoritative statement that a user
// intends to telework on a date. It is never persisted by this service.
type TeleworkRequestSnapshot struct {
	RequestID   int64
	UserID      int64
	WorkType    string
	Date        Date
	IsHomeBased bool
	Country     string
	Region      string
	Reason      string
	// Status is empty unless the upstream request carries an explicit decision.
	Status PlanningStatus
}
