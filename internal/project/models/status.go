package models

// Status is the lifecycle state of a project. Values match the ledger's
// published numeric constants.
type Status uint32

const (
	StatusProposed  Status = 1
	StatusActive    Status = 2
	StatusCompleted Status = 3
	StatusSuspended Status = 4
)

func (s Status) IsValid() bool {
	return s >= StatusProposed && s <= StatusSuspended
}

func (s Status) String() string {
	switch s {
	case StatusProposed:
		return "proposed"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}
