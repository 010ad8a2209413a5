package admin

import "time"

// AuditEntryResponse is the HTTP response DTO for one audit event.
type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Subsystem string    `json:"subsystem"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	RecordID  uint64    `json:"record_id,omitempty"`
	ProjectID uint64    `json:"project_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditFeedResponse wraps the most recent audit events, newest first.
type AuditFeedResponse struct {
	Events []*AuditEntryResponse `json:"events"`
	Total  int                   `json:"total"`
}
