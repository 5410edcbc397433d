package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelsMatchByKind(t *testing.T) {
	err := Conflict("duplicate week")

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, Conflict("duplicate week")), "non-sentinel errors compare by identity")
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	base := Validation("score must be between 0 and 10", map[string]string{"score": "out_of_range"})
	wrapped := fmt.Errorf("create score: %w", base)

	require.True(t, errors.Is(wrapped, ErrValidation))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindValidation, got.Kind)
	assert.Equal(t, "out_of_range", got.Fields["score"])
}

func TestDomainSentinelIdentity(t *testing.T) {
	errHabitMissing := NotFound("habit not found")
	wrapped := fmt.Errorf("get habit: %w", errHabitMissing)

	assert.True(t, errors.Is(wrapped, errHabitMissing))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "NOT_FOUND: habit not found", errHabitMissing.Error())
}

func TestAsRejectsPlainErrors(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
