package models

// Status is the progress state a report declares for its milestone.
type Status uint32

const (
	StatusPlanned    Status = 1
	StatusInProgress Status = 2
	StatusCompleted  Status = 3
	StatusDelayed    Status = 4
)

func (s Status) IsValid() bool {
	return s >= StatusPlanned && s <= StatusDelayed
}

func (s Status) String() string {
	switch s {
	case StatusPlanned:
		return "planned"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusDelayed:
		return "delayed"
	default:
		return "unknown"
	}
}
