package adapters

import (
	"context"

	"canopy/internal/admin/types"
	audit "canopy/pkg/platform/audit"
)

// AuditLister is implemented by every audit store and by the publisher.
type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// AuditFeedAdapter adapts an audit store to admin's AuditFeed interface.
type AuditFeedAdapter struct {
	store AuditLister
}

func NewAuditFeedAdapter(store AuditLister) *AuditFeedAdapter {
	return &AuditFeedAdapter{store: store}
}

// Recent returns up to limit events mapped to admin types.
func (a *AuditFeedAdapter) Recent(ctx context.Context, limit int) ([]*types.AuditEntry, error) {
	events, err := a.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*types.AuditEntry, len(events))
	for i, e := range events {
		result[i] = mapEvent(e)
	}
	return result, nil
}

func mapEvent(e audit.Event) *types.AuditEntry {
	return &types.AuditEntry{
		ID:        e.ID,
		Subsystem: string(e.Subsystem),
		Action:    string(e.Action),
		Actor:     e.Actor,
		RecordID:  e.RecordID,
		ProjectID: e.ProjectID,
		Detail:    e.Detail,
		RequestID: e.RequestID,
		Timestamp: e.Timestamp,
	}
}
