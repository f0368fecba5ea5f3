package components

import (
	"context"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/invoice"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/amazon-ynab-reconciler/internal/domain/outbox"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Create(ctx context.Context, rn *run.Run) error {
	args := m.Called(ctx, rn)
	return args.Error(0)
}

func (m *MockRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *MockRunRepo) GetByIdempotencyKey(ctx context.Context, key string) (*run.Run, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*run.Run), args.Error(1)
}

func (m *MockRunRepo) Save(ctx context.Context, rn *run.Run) error {
	args := m.Called(ctx, rn)
	return args.Error(0)
}

func (m *MockRunRepo) WithTx(tx pgx.Tx) run.Repository {
	args := m.Called(tx)
	return args.Get(0).(run.Repository)
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*outbox.Message, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Save(ctx context.Context, record *invoice.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInvoiceRepo) SaveMany(ctx context.Context, records []*invoice.Record) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetLatestByOrderID(ctx context.Context, orderID string) (*invoice.Record, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoice.Record), args.Error(1)
}

func (m *MockInvoiceRepo) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*invoice.Record, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*invoice.Record), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Budget), args.Error(1)
}

func (m *MockGateway) ListTransactions(ctx context.Context, budgetID string, since time.Time) ([]*ledger.Entry, error) {
	args := m.Called(ctx, budgetID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockGateway) BulkPatch(ctx context.Context, budgetID string, payloads []ledger.PatchPayload) error {
	args := m.Called(ctx, budgetID, payloads)
	return args.Error(0)
}
