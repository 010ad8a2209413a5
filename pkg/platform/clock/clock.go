// Package clock supplies the logical timestamps stamped on ledger records.
package clock

import (
	"context"
	"sync"

	"canopy/pkg/domain"
	"canopy/pkg/requestcontext"
)

// Clock returns the current logical timestamp.
type Clock interface {
	Now(ctx context.Context) domain.Timestamp
}

// Logical derives timestamps from the request-scoped time in seconds and never
// returns a value lower than one it already returned.
type Logical struct {
	mu   sync.Mutex
	last domain.Timestamp
}

func NewLogical() *Logical {
	return &Logical{}
}

func (c *Logical) Now(ctx context.Context) domain.Timestamp {
	sec := requestcontext.Now(ctx).Unix()
	if sec < 0 {
		sec = 0
	}
	ts := domain.Timestamp(sec)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ts < c.last {
		ts = c.last
	}
	c.last = ts
	return ts
}

// Fixed always returns the same timestamp.
type Fixed domain.Timestamp

func (f Fixed) Now(context.Context) domain.Timestamp { return domain.Timestamp(f) }

// Sequence returns start, start+1, start+2, ... on successive calls.
type Sequence struct {
	mu   sync.Mutex
	next domain.Timestamp
}

func NewSequence(start domain.Timestamp) *Sequence {
	return &Sequence{next: start}
}

func (s *Sequence) Now(context.Context) domain.Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.next
	s.next++
	return ts
}
