package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "canopy/pkg/platform/audit"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) appendEvents(n int) {
	for i := range n {
		s.Require().NoError(s.store.Append(s.ctx, audit.Event{
			ID:       uuid.New(),
			Action:   audit.EventDonationMade,
			RecordID: uint64(i + 1),
		}))
	}
}

func (s *InMemoryStoreSuite) TestListRecent() {
	s.appendEvents(3)

	events, err := s.store.ListRecent(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(3), events[0].RecordID)
	s.Equal(uint64(2), events[1].RecordID)

	all, err := s.store.ListRecent(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *InMemoryStoreSuite) TestRelay() {
	s.Run("relays in batches and advances the cursor", func() {
		s.store.Clear()
		s.appendEvents(3)

		var seen []uint64
		collect := func(_ context.Context, entries []audit.OutboxEntry) error {
			for _, e := range entries {
				seen = append(seen, e.Event.RecordID)
				s.NotEmpty(e.Payload)
			}
			return nil
		}

		n, err := s.store.Relay(s.ctx, 2, collect)
		s.Require().NoError(err)
		s.Equal(2, n)

		n, err = s.store.Relay(s.ctx, 2, collect)
		s.Require().NoError(err)
		s.Equal(1, n)

		n, err = s.store.Relay(s.ctx, 2, collect)
		s.Require().NoError(err)
		s.Zero(n)
		s.Equal([]uint64{1, 2, 3}, seen)
	})

	s.Run("keeps events pending when the sink fails", func() {
		s.store.Clear()
		s.appendEvents(1)

		boom := errors.New("broker down")
		_, err := s.store.Relay(s.ctx, 10, func(context.Context, []audit.OutboxEntry) error { return boom })
		s.ErrorIs(err, boom)

		n, err := s.store.Relay(s.ctx, 10, func(context.Context, []audit.OutboxEntry) error { return nil })
		s.Require().NoError(err)
		s.Equal(1, n)
	})
}
