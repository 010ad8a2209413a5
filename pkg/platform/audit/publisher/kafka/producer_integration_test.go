//go:build integration

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "canopy/pkg/platform/audit"
	"canopy/pkg/testutil/containers"
)

func TestProducer_ProduceToRedpanda(t *testing.T) {
	broker := containers.GetManager().GetRedpanda(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	p, err := NewProducer([]string{broker.Broker}, "canopy.audit.test")
	require.NoError(t, err)
	defer p.Close()
	require.NoError(t, p.EnsureTopic(ctx, 1, 1))
	// Second call must tolerate the existing topic.
	require.NoError(t, p.EnsureTopic(ctx, 1, 1))

	event := audit.Event{
		Subsystem: audit.SubsystemDonations,
		Action:    audit.EventDonationMade,
		Actor:     "donor-1",
		RecordID:  1,
		ProjectID: 1,
		Timestamp: time.Now(),
	}
	payload, err := audit.EncodePayload(event)
	require.NoError(t, err)
	require.NoError(t, p.Produce(ctx, []audit.OutboxEntry{{Event: event, Payload: payload}}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("canopy.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "1", string(records[0].Key))

	decoded, err := audit.DecodePayload(records[0].Value)
	require.NoError(t, err)
	require.Equal(t, audit.EventDonationMade, decoded.Action)
}
