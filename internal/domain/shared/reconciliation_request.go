package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyFragments = errors.New("at least one transaction fragment is required")
	ErrEmptyInvoices  = errors.New("at least one invoice document is required")
)

// ReconciliationRequest defines a Kafka message asking for one reconciliation run
type ReconciliationRequest struct {
	RunID          uuid.UUID         `json:"run_id"`
	Fragments      []string          `json:"fragments"`
	Invoices       map[string]string `json:"invoices"` // order id -> raw invoice document
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	CorrelationID  string            `json:"correlation_id"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Validate checks the request carries something to reconcile
func (r *ReconciliationRequest) Validate() error {
	if len(r.Fragments) == 0 {
		return ErrEmptyFragments
	}
	if len(r.Invoices) == 0 {
		return ErrEmptyInvoices
	}
	return nil
}
