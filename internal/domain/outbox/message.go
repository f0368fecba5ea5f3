package outbox

import (
	"encoding/json"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/google/uuid"
)

// Message stores one patch batch for reliable delivery to the ledger
type Message struct {
	ID            int64               `json:"id"`
	RunID         uuid.UUID           `json:"run_id"`
	BudgetID      string              `json:"budget_id"`
	Kind          shared.PatchKind    `json:"kind"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(runID uuid.UUID, budgetID string, kind shared.PatchKind, patches []ledger.PatchPayload) (*Message, error) {
	payload, err := json.Marshal(patches)
	if err != nil {
		return nil, err
	}

	return &Message{
		RunID:     runID,
		BudgetID:  budgetID,
		Kind:      kind,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetPatches extracts the patch batch from the payload
func (m *Message) GetPatches() ([]ledger.PatchPayload, error) {
	var patches []ledger.PatchPayload
	if err := json.Unmarshal(m.Payload, &patches); err != nil {
		return nil, err
	}
	return patches, nil
}
