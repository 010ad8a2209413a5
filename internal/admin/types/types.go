// Package types holds the admin view of records owned by other modules.
package types

import (
	"time"

	"github.com/google/uuid"

	"canopy/pkg/domain"
)

type AuditEntry struct {
	ID        uuid.UUID
	Subsystem string
	Action    string
	Actor     domain.Principal
	RecordID  uint64
	ProjectID domain.ProjectID
	Detail    string
	RequestID string
	Timestamp time.Time
}
