package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"canopy/pkg/domain"
)

// Subsystem names the ledger store that emitted an event.
type Subsystem string

const (
	SubsystemProjects  Subsystem = "projects"
	SubsystemDonations Subsystem = "donations"
	SubsystemReports   Subsystem = "reports"
	SubsystemMetrics   Subsystem = "metrics"
)

// Action identifies what happened.
type Action string

const (
	EventProjectRegistered    Action = "project_registered"
	EventProjectStatusUpdated Action = "project_status_updated"
	EventDonationMade         Action = "donation_made"
	EventDonationStatusUpdate Action = "donation_status_updated"
	EventReportSubmitted      Action = "report_submitted"
	EventReportStatusUpdated  Action = "report_status_updated"
	EventMetricRecorded       Action = "metric_recorded"
	EventAdminChanged         Action = "admin_changed"
)

// Event is emitted by services after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Subsystem Subsystem
	Action    Action
	Actor     domain.Principal
	RecordID  uint64
	ProjectID domain.ProjectID
	// Detail is a short key=value summary of the change, e.g. "status=3".
	Detail    string
	RequestID string
	Timestamp time.Time
}

// Store persists audit events. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// OutboxEntry is an appended event that has not yet been relayed downstream.
type OutboxEntry struct {
	Event   Event
	Payload []byte
}

// Relayer hands unpublished events to fn and marks them published when fn succeeds.
type Relayer interface {
	Relay(ctx context.Context, limit int, fn func(ctx context.Context, entries []OutboxEntry) error) (int, error)
}
