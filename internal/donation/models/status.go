package models

// Status is the lifecycle state of a donation.
type Status uint32

const (
	StatusPending   Status = 1
	StatusConfirmed Status = 2
	StatusAllocated Status = 3
	StatusRefunded  Status = 4
)

func (s Status) IsValid() bool {
	return s >= StatusPending && s <= StatusRefunded
}

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusAllocated || s == StatusRefunded
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusAllocated:
		return "allocated"
	case StatusRefunded:
		return "refunded"
	default:
		return "unknown"
	}
}
