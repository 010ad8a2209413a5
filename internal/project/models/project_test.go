package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "canopy/pkg/domain-errors"
)

func TestNewProject(t *testing.T) {
	reg := Registration{
		Name:          "Elephant Conservation Initiative",
		Location:      "Kenya",
		TargetSpecies: "African Elephant",
		StartDate:     1672531200,
		EndDate:       1704067200,
	}

	t.Run("starts proposed and coordinated by caller", func(t *testing.T) {
		p, err := NewProject("coordinator", reg, 100)
		require.NoError(t, err)
		assert.Equal(t, StatusProposed, p.Status)
		assert.Equal(t, "coordinator", p.Coordinator.String())
		assert.EqualValues(t, 100, p.RegistrationDate)
		assert.True(t, p.IsCoordinator("coordinator"))
		assert.False(t, p.IsCoordinator("someone-else"))
	})

	t.Run("empty name rejected", func(t *testing.T) {
		bad := reg
		bad.Name = "   "
		_, err := NewProject("coordinator", bad, 100)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidValue))
	})

	t.Run("long name rejected", func(t *testing.T) {
		bad := reg
		bad.Name = strings.Repeat("a", MaxNameLength+1)
		_, err := NewProject("coordinator", bad, 100)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidValue, ErrorCode(err))
	})

	t.Run("length counts characters not bytes", func(t *testing.T) {
		ok := reg
		ok.Name = strings.Repeat("é", MaxNameLength)
		p, err := NewProject("coordinator", ok, 100)
		require.NoError(t, err)
		assert.Equal(t, ok.Name, p.Name)

		bad := reg
		bad.Name = strings.Repeat("é", MaxNameLength+1)
		_, err = NewProject("coordinator", bad, 100)
		assert.Equal(t, ErrCodeInvalidValue, ErrorCode(err))
	})
}

func TestProject_CanSetStatus(t *testing.T) {
	p := &Project{Status: StatusCompleted}
	for _, s := range []Status{StatusProposed, StatusActive, StatusCompleted, StatusSuspended} {
		assert.NoError(t, p.CanSetStatus(s), s.String())
	}
	for _, s := range []Status{0, 5, 10} {
		err := p.CanSetStatus(s)
		require.Error(t, err)
		assert.Equal(t, ErrCodeInvalidStatus, ErrorCode(err))
	}
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotAuthorized, ErrorCode(dErrors.New(dErrors.CodeNotAuthorized, "x")))
	assert.Equal(t, ErrCodeProjectNotFound, ErrorCode(dErrors.New(dErrors.CodeNotFound, "x")))
	assert.Zero(t, ErrorCode(dErrors.New(dErrors.CodeInternal, "x")))
}
