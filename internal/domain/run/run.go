package run

import (
	"errors"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/match"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/google/uuid"
)

var ErrRunAlreadyFinished = errors.New("run already finished")

// Run records the outcome of one reconciliation
type Run struct {
	ID             uuid.UUID            `json:"id"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	CorrelationID  string               `json:"correlation_id,omitempty"`
	BudgetID       string               `json:"budget_id,omitempty"`
	Status         shared.RunStatus     `json:"status"`
	FragmentCount  int                  `json:"fragment_count"`
	OrderCount     int                  `json:"order_count"`
	InvoiceCount   int                  `json:"invoice_count"`
	MatchCount     int                  `json:"match_count"`
	AmbiguousCount int                  `json:"ambiguous_count"`
	TipCount       int                  `json:"tip_count"`
	Matches        []match.Pair         `json:"matches"`
	FailedOrders   []string             `json:"failed_orders"`
	FailureReason  shared.FailureReason `json:"failure_reason,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`
}

// NewRun creates a pending run
func NewRun(id uuid.UUID, idempotencyKey, correlationID string) *Run {
	now := time.Now()
	return &Run{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		CorrelationID:  correlationID,
		Status:         shared.RunStatusPending,
		Matches:        []match.Pair{},
		FailedOrders:   []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsFinished reports whether the run reached a terminal state
func (r *Run) IsFinished() bool {
	return r.Status == shared.RunStatusCompleted || r.Status == shared.RunStatusFailed
}

// Start marks the run as picked up by the processor
func (r *Run) Start() error {
	if r.IsFinished() {
		return ErrRunAlreadyFinished
	}
	r.Status = shared.RunStatusProcessing
	r.UpdatedAt = time.Now()
	return nil
}

// Complete marks the run as successfully reconciled
func (r *Run) Complete() error {
	if r.IsFinished() {
		return ErrRunAlreadyFinished
	}
	now := time.Now()
	r.Status = shared.RunStatusCompleted
	r.UpdatedAt = now
	r.CompletedAt = &now
	return nil
}

// Fail marks the run as failed with the given reason
func (r *Run) Fail(reason shared.FailureReason) error {
	if r.IsFinished() {
		return ErrRunAlreadyFinished
	}
	now := time.Now()
	r.Status = shared.RunStatusFailed
	r.FailureReason = reason
	r.UpdatedAt = now
	r.CompletedAt = &now
	return nil
}
