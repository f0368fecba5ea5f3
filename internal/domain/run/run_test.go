package run

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRun(t *testing.T) {
	id := uuid.New()
	r := NewRun(id, "key-1", "corr-1")

	assert.Equal(t, id, r.ID)
	assert.Equal(t, "key-1", r.IdempotencyKey)
	assert.Equal(t, "corr-1", r.CorrelationID)
	assert.Equal(t, shared.RunStatusPending, r.Status)
	assert.NotNil(t, r.Matches)
	assert.NotNil(t, r.FailedOrders)
	assert.False(t, r.IsFinished())
	assert.Nil(t, r.CompletedAt)
}

func TestRun_Start(t *testing.T) {
	r := NewRun(uuid.New(), "", "")
	require.NoError(t, r.Start())
	assert.Equal(t, shared.RunStatusProcessing, r.Status)
	assert.False(t, r.IsFinished())

	require.NoError(t, r.Complete())
	assert.ErrorIs(t, r.Start(), ErrRunAlreadyFinished)
}

func TestRun_Complete(t *testing.T) {
	t.Run("FromPending", func(t *testing.T) {
		r := NewRun(uuid.New(), "", "")
		require.NoError(t, r.Complete())
		assert.Equal(t, shared.RunStatusCompleted, r.Status)
		require.NotNil(t, r.CompletedAt)
		assert.True(t, r.IsFinished())
	})

	t.Run("AlreadyFinished", func(t *testing.T) {
		r := NewRun(uuid.New(), "", "")
		require.NoError(t, r.Fail(shared.FailureReasonLedgerUnavailable))
		assert.ErrorIs(t, r.Complete(), ErrRunAlreadyFinished)
		assert.Equal(t, shared.RunStatusFailed, r.Status)
	})
}

func TestRun_Fail(t *testing.T) {
	r := NewRun(uuid.New(), "", "")
	require.NoError(t, r.Fail(shared.FailureReasonBudgetNotFound))
	assert.Equal(t, shared.RunStatusFailed, r.Status)
	assert.Equal(t, shared.FailureReasonBudgetNotFound, r.FailureReason)
	assert.ErrorIs(t, r.Fail(shared.FailureReasonUnknownError), ErrRunAlreadyFinished)
}

func TestErrRunNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("wrapped: %w", ErrRunNotFound{RunID: id})

	assert.True(t, errors.Is(err, ErrRunNotFound{}))
	assert.True(t, errors.Is(err, ErrRunNotFound{RunID: id}))
	assert.False(t, errors.Is(err, ErrRunNotFound{RunID: uuid.New()}))
	assert.True(t, errors.Is(ErrDuplicateIdempotencyKey{Key: "k"}, ErrDuplicateIdempotencyKey{}))
}
