package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "canopy/pkg/platform/audit"
	"canopy/pkg/platform/audit/store/memory"
	"canopy/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	fixed := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), fixed), "req-42")

	err := pub.Emit(ctx, audit.Event{
		Subsystem: audit.SubsystemDonations,
		Action:    audit.EventDonationMade,
		Actor:     "donor-1",
		RecordID:  1,
	})
	require.NoError(t, err)

	events, err := pub.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventDonationMade, events[0].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	err := pub.Emit(context.Background(), audit.Event{
		Subsystem: audit.SubsystemMetrics,
		Action:    audit.EventMetricRecorded,
	})
	require.NoError(t, err)

	// Close flushes the buffer.
	pub.Close()

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventMetricRecorded, events[0].Action)
}
