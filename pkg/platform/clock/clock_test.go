package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"canopy/pkg/domain"
	"canopy/pkg/requestcontext"
)

func TestLogicalNeverMovesBackwards(t *testing.T) {
	c := NewLogical()
	later := requestcontext.WithTime(context.Background(), time.Unix(1704067200, 0))
	earlier := requestcontext.WithTime(context.Background(), time.Unix(1672531200, 0))

	assert.Equal(t, domain.Timestamp(1704067200), c.Now(later))
	assert.Equal(t, domain.Timestamp(1704067200), c.Now(earlier))
}

func TestLogicalClampsPreEpochTimes(t *testing.T) {
	c := NewLogical()
	ctx := requestcontext.WithTime(context.Background(), time.Unix(-5, 0))
	assert.Equal(t, domain.Timestamp(0), c.Now(ctx))
}

func TestSequence(t *testing.T) {
	s := NewSequence(100)
	ctx := context.Background()
	assert.Equal(t, domain.Timestamp(100), s.Now(ctx))
	assert.Equal(t, domain.Timestamp(101), s.Now(ctx))
	assert.Equal(t, domain.Timestamp(7), Fixed(7).Now(ctx))
}
