package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"canopy/pkg/domain"
)

// payload is the JSON structure published to Kafka.
type payload struct {
	ID        string `json:"id"`
	Subsystem string `json:"subsystem"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	RecordID  uint64 `json:"record_id"`
	ProjectID uint64 `json:"project_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// EncodePayload renders an event as the JSON document written to the outbox.
func EncodePayload(e Event) ([]byte, error) {
	b, err := json.Marshal(payload{
		ID:        e.ID.String(),
		Subsystem: string(e.Subsystem),
		Action:    string(e.Action),
		Actor:     string(e.Actor),
		RecordID:  e.RecordID,
		ProjectID: uint64(e.ProjectID),
		Detail:    e.Detail,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses a document produced by EncodePayload.
func DecodePayload(b []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	eventID, err := uuid.Parse(p.ID)
	if err != nil {
		return Event{}, fmt.Errorf("parse audit event id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	return Event{
		ID:        eventID,
		Subsystem: Subsystem(p.Subsystem),
		Action:    Action(p.Action),
		Actor:     domain.Principal(p.Actor),
		RecordID:  p.RecordID,
		ProjectID: domain.ProjectID(p.ProjectID),
		Detail:    p.Detail,
		RequestID: p.RequestID,
		Timestamp: ts,
	}, nil
}
