package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/match"
	"github.com/amazon-ynab-reconciler/internal/domain/run"
	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var runRowColumns = []string{
	"id", "idempotency_key", "correlation_id", "budget_id", "status", "fragment_count", "order_count",
	"invoice_count", "match_count", "ambiguous_count", "tip_count", "matches", "failed_orders", "failure_reason",
	"created_at", "updated_at", "completed_at",
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRunRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RunRepository{querier: mock, logger: newTestLogger()}
	rn := run.NewRun(uuid.New(), "key-1", "corr-1")

	t.Run("success", func(t *testing.T) {
		args := anyArgs(17)
		args[0] = rn.ID
		args[4] = shared.RunStatusPending
		mock.ExpectExec(`INSERT INTO reconciliation_runs`).
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, rn))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate idempotency key", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO reconciliation_runs`).
			WithArgs(anyArgs(17)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, rn)
		assert.True(t, errors.Is(err, run.ErrDuplicateIdempotencyKey{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(`INSERT INTO reconciliation_runs`).
			WithArgs(anyArgs(17)...).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, rn)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), "failed to create run")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunRepository_Save(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RunRepository{querier: mock, logger: newTestLogger()}
	rn := run.NewRun(uuid.New(), "", "corr-1")
	rn.Matches = []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}}
	require.NoError(t, rn.Complete())

	t.Run("success", func(t *testing.T) {
		args := anyArgs(17)
		args[0] = rn.ID
		args[4] = shared.RunStatusCompleted
		args[11] = []byte(`[{"invoice_order_id":"o1","ledger_entry_id":"l1"}]`)
		mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(args...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Save(ctx, rn))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(anyArgs(17)...).
			WillReturnError(errors.New("db error"))

		err := repo.Save(ctx, rn)
		assert.Contains(t, err.Error(), "failed to save run")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RunRepository{querier: mock, logger: newTestLogger()}
	runID := uuid.New()
	key := "key-1"
	created := time.Now().Add(-time.Minute).UTC()
	completed := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(runRowColumns).AddRow(
			runID, &key, "corr-1", "budget-1", shared.RunStatusCompleted, 3, 2, 2, 1, 0, 1,
			[]byte(`[{"invoice_order_id":"o1","ledger_entry_id":"l1"}]`), []string{"o2"}, shared.FailureReason(""),
			created, completed, &completed,
		)
		mock.ExpectQuery(`SELECT (.+) FROM reconciliation_runs WHERE id = \$1`).
			WithArgs(runID).
			WillReturnRows(rows)

		rn, err := repo.GetByID(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, runID, rn.ID)
		assert.Equal(t, "key-1", rn.IdempotencyKey)
		assert.Equal(t, "budget-1", rn.BudgetID)
		assert.Equal(t, shared.RunStatusCompleted, rn.Status)
		assert.Equal(t, 1, rn.MatchCount)
		assert.Equal(t, []match.Pair{{InvoiceOrderID: "o1", LedgerEntryID: "l1"}}, rn.Matches)
		assert.Equal(t, []string{"o2"}, rn.FailedOrders)
		require.NotNil(t, rn.CompletedAt)
		assert.True(t, completed.Equal(*rn.CompletedAt))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reconciliation_runs WHERE id = \$1`).
			WithArgs(runID).
			WillReturnError(pgx.ErrNoRows)

		rn, err := repo.GetByID(ctx, runID)
		assert.Nil(t, rn)
		assert.True(t, errors.Is(err, run.ErrRunNotFound{RunID: runID}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM reconciliation_runs WHERE id = \$1`).
			WithArgs(runID).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(ctx, runID)
		assert.Contains(t, err.Error(), "failed to get run")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunRepository_GetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &RunRepository{querier: mock, logger: newTestLogger()}

	mock.ExpectQuery(`SELECT (.+) FROM reconciliation_runs WHERE idempotency_key = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByIdempotencyKey(ctx, "missing")
	assert.True(t, errors.Is(err, run.ErrRunNotFound{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_WithTx(t *testing.T) {
	repo := &RunRepository{querier: nil, logger: newTestLogger()}

	mockTx := pgx.Tx(nil)
	txRepo := repo.WithTx(mockTx)

	runRepo, ok := txRepo.(*RunRepository)
	require.True(t, ok)
	assert.Equal(t, mockTx, runRepo.querier)
}
