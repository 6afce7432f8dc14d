package store

// UpsertMode controls whether an upsert that hits an existing (user, date)
// row overwrites its status.
type UpsertMode int

const (
	// KeepStatus leaves the stored status of an existing row untouched.
	KeepStatus UpsertMode = iota
	// OverwriteStatus replaces the stored status with the incoming one.
	OverwriteStatus
)

var (
	keyColumns = []string{"user_id", "planning_date"}

	// mutableColumns are refreshed on every reconciliation.
	mutableColumns = []string{"user_name", "location", "work_type", "reasons", "updated_at"}
)
