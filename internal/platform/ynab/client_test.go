package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClientWithHTTP(logger, server.URL, "test-token", server.Client())
}

func strPtr(s string) *string { return &s }

func TestClient_ListBudgets(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/budgets", r.URL.Path)
			_, _ = w.Write([]byte(`{"data":{"budgets":[{"id":"b-1","name":"Household"},{"id":"b-2","name":"Business"}]}}`))
		})

		budgets, err := client.ListBudgets(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []ledger.Budget{{ID: "b-1", Name: "Household"}, {ID: "b-2", Name: "Business"}}, budgets)
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"id":"401","name":"unauthorized","detail":"Unauthorized"}}`))
		})

		_, err := client.ListBudgets(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "unauthorized", apiErr.Name)
		assert.Contains(t, err.Error(), "Unauthorized")
	})
}

func TestClient_ListTransactions(t *testing.T) {
	since := time.Date(2024, time.February, 1, 15, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/budgets/b-1/transactions", r.URL.Path)
			assert.Equal(t, "2024-02-01", r.URL.Query().Get("since_date"))
			_, _ = w.Write([]byte(`{"data":{"transactions":[
				{"id":"t-1","date":"2024-02-03","amount":-10800,"memo":null,"payee_name":"Amazon.com","deleted":false},
				{"id":"t-2","date":"2024-02-04","amount":-5000,"memo":"groceries","payee_name":null,"deleted":false},
				{"id":"t-3","date":"2024-02-05","amount":-1000,"memo":null,"payee_name":"Amazon","deleted":true},
				{"id":"t-4","date":"not-a-date","amount":-1000,"memo":null,"payee_name":"Amazon","deleted":false}
			]}}`))
		})

		entries, err := client.ListTransactions(context.Background(), "b-1", since)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "t-1", entries[0].ID)
		assert.Equal(t, int64(-10800), entries[0].Amount)
		assert.Equal(t, "Amazon.com", entries[0].Payee)
		assert.Nil(t, entries[0].Memo)
		require.NotNil(t, entries[0].Date)
		assert.Equal(t, time.Date(2024, time.February, 3, 0, 0, 0, 0, time.UTC), *entries[0].Date)

		assert.Equal(t, "t-2", entries[1].ID)
		assert.Equal(t, "", entries[1].Payee)
		assert.Equal(t, "groceries", *entries[1].Memo)
	})

	t.Run("unknown budget", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"id":"404.2","name":"resource_not_found","detail":"Resource not found"}}`))
		})

		_, err := client.ListTransactions(context.Background(), "missing", since)
		assert.ErrorIs(t, err, ledger.ErrBudgetNotFound{})
		assert.Equal(t, ledger.ErrBudgetNotFound{BudgetID: "missing"}, err)
	})

	t.Run("server error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.ListTransactions(context.Background(), "b-1", since)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list transactions")
		assert.Contains(t, err.Error(), "500")
	})
}

func TestClient_BulkPatch(t *testing.T) {
	payloads := []ledger.PatchPayload{
		{ID: "t-1", Memo: "USB Cable | AMAZON", PayeeID: "p-1", PayeeName: "Amazon"},
		{ID: "t-2", Memo: "Amazon Tip | AMAZON"},
	}

	t.Run("success", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/budgets/b-1/transactions", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body struct {
				Transactions []map[string]interface{} `json:"transactions"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Transactions, 2)
			assert.Equal(t, "USB Cable | AMAZON", body.Transactions[0]["memo"])
			assert.Equal(t, "p-1", body.Transactions[0]["payee_id"])
			assert.NotContains(t, body.Transactions[1], "payee_id")

			_, _ = w.Write([]byte(`{"data":{"transaction_ids":["t-1","t-2"]}}`))
		})

		require.NoError(t, client.BulkPatch(context.Background(), "b-1", payloads))
	})

	t.Run("empty batch makes no request", func(t *testing.T) {
		called := false
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})

		require.NoError(t, client.BulkPatch(context.Background(), "b-1", nil))
		assert.False(t, called)
	})

	t.Run("rejected batch", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"id":"400","name":"bad_request","detail":"memo too long"}}`))
		})

		err := client.BulkPatch(context.Background(), "b-1", payloads)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "memo too long", apiErr.Detail)
	})
}

func TestPartitionEntries(t *testing.T) {
	entries := []*ledger.Entry{
		{ID: "a", Payee: "Amazon.com"},
		{ID: "b", Payee: "AMZN Mktp US"},
		{ID: "c", Payee: "Amazon Tips"},
		{ID: "d", Payee: "Amazon", Memo: strPtr("already reconciled")},
		{ID: "e", Payee: "Grocery Store"},
		{ID: "f", Payee: "amazon", Memo: strPtr("")},
	}

	purchases, tips := PartitionEntries(entries)

	assert.Len(t, purchases, 3)
	assert.Contains(t, purchases, "a")
	assert.Contains(t, purchases, "b")
	assert.Contains(t, purchases, "f")
	assert.Len(t, tips, 1)
	assert.Contains(t, tips, "c")
}
