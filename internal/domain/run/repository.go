package run

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines run persistence operations
type Repository interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Run, error)

	// Save inserts the run or overwrites its outcome when it already exists
	Save(ctx context.Context, run *Run) error
	WithTx(tx pgx.Tx) Repository
}

// ErrRunNotFound indicates missing run
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "run not found: " + e.RunID.String()
}

// Is implements the errors.Is interface for ErrRunNotFound
func (e ErrRunNotFound) Is(target error) bool {
	t, ok := target.(ErrRunNotFound)
	if !ok {
		return false
	}
	// If the target RunID is empty, consider it a match for any ErrRunNotFound
	if t.RunID == uuid.Nil {
		return true
	}
	return e.RunID == t.RunID
}

// ErrDuplicateIdempotencyKey indicates idempotency key uniqueness violation
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "run with idempotency key already exists: " + e.Key
}

// Is implements the errors.Is interface for ErrDuplicateIdempotencyKey
func (e ErrDuplicateIdempotencyKey) Is(target error) bool {
	_, ok := target.(ErrDuplicateIdempotencyKey)
	return ok
}
