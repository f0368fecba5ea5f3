// Package ynab is the HTTP client for the YNAB budgeting API. It lists budgets
// and transactions and applies memo patches in bulk.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/amazon-ynab-reconciler/internal/config"
	"github.com/amazon-ynab-reconciler/internal/domain/ledger"
)

const dateLayout = "2006-01-02"

var (
	storefrontPayee = regexp.MustCompile(`(?i)amazon|amzn`)
	tipPayee        = regexp.MustCompile(`(?i)tips`)
)

// Client implements ledger.Gateway against the YNAB REST API
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a YNAB client from configuration
func NewClient(logger *slog.Logger, cfg *config.YNABConfig) *Client {
	return NewClientWithHTTP(logger, cfg.BaseURL, cfg.Token, &http.Client{Timeout: cfg.Timeout})
}

// NewClientWithHTTP creates a client with a custom HTTP client (for testing)
func NewClientWithHTTP(logger *slog.Logger, baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
	}
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	ID         string
	Name       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ynab api error: %d %s: %s", e.StatusCode, e.Name, e.Detail)
	}
	return fmt.Sprintf("ynab api error: %d", e.StatusCode)
}

type errorResponse struct {
	Error struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Detail string `json:"detail"`
	} `json:"error"`
}

type budgetsResponse struct {
	Data struct {
		Budgets []ledger.Budget `json:"budgets"`
	} `json:"data"`
}

type transactionsResponse struct {
	Data struct {
		Transactions []wireTransaction `json:"transactions"`
	} `json:"data"`
}

type wireTransaction struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Amount    int64   `json:"amount"`
	Memo      *string `json:"memo"`
	PayeeName *string `json:"payee_name"`
	Deleted   bool    `json:"deleted"`
}

type bulkPatchRequest struct {
	Transactions []ledger.PatchPayload `json:"transactions"`
}

// ListBudgets returns every budget visible to the token
func (c *Client) ListBudgets(ctx context.Context) ([]ledger.Budget, error) {
	var resp budgetsResponse
	if err := c.do(ctx, http.MethodGet, "/budgets", nil, &resp); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return resp.Data.Budgets, nil
}

// ListTransactions returns the budget's non-deleted transactions dated on or after since.
// A 404 maps to ledger.ErrBudgetNotFound.
func (c *Client) ListTransactions(ctx context.Context, budgetID string, since time.Time) ([]*ledger.Entry, error) {
	params := url.Values{}
	params.Set("since_date", since.Format(dateLayout))
	path := fmt.Sprintf("/budgets/%s/transactions?%s", url.PathEscape(budgetID), params.Encode())

	var resp transactionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ledger.ErrBudgetNotFound{BudgetID: budgetID}
		}
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	entries := make([]*ledger.Entry, 0, len(resp.Data.Transactions))
	for _, tx := range resp.Data.Transactions {
		if tx.Deleted {
			continue
		}
		entry, err := tx.toEntry()
		if err != nil {
			c.logger.Warn("Skipping ledger entry with unparseable date",
				"ledger_entry_id", tx.ID,
				"date", tx.Date,
				"error", err,
			)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// BulkPatch applies a batch of memo/payee updates in one request
func (c *Client) BulkPatch(ctx context.Context, budgetID string, payloads []ledger.PatchPayload) error {
	if len(payloads) == 0 {
		return nil
	}

	body, err := json.Marshal(bulkPatchRequest{Transactions: payloads})
	if err != nil {
		return fmt.Errorf("marshal patch batch: %w", err)
	}

	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(budgetID))
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("bulk patch transactions: %w", err)
	}

	c.logger.Info("Patched ledger entries", "budget_id", budgetID, "count", len(payloads))
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if raw, readErr := io.ReadAll(resp.Body); readErr == nil && json.Unmarshal(raw, &errResp) == nil {
			apiErr.ID = errResp.Error.ID
			apiErr.Name = errResp.Error.Name
			apiErr.Detail = errResp.Error.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (t wireTransaction) toEntry() (*ledger.Entry, error) {
	entry := &ledger.Entry{
		ID:     t.ID,
		Amount: t.Amount,
		Memo:   t.Memo,
	}
	if t.PayeeName != nil {
		entry.Payee = *t.PayeeName
	}
	if t.Date != "" {
		d, err := time.Parse(dateLayout, t.Date)
		if err != nil {
			return nil, err
		}
		entry.Date = &d
	}
	return entry, nil
}

// PartitionEntries keeps storefront entries without a memo and splits them
// into purchases to match and tip entries, both keyed by ledger entry ID.
func PartitionEntries(entries []*ledger.Entry) (purchases map[string]*ledger.Entry, tips map[string]*ledger.Entry) {
	purchases = make(map[string]*ledger.Entry)
	tips = make(map[string]*ledger.Entry)
	for _, e := range entries {
		if !storefrontPayee.MatchString(e.Payee) || e.HasMemo() {
			continue
		}
		if tipPayee.MatchString(e.Payee) {
			tips[e.ID] = e
			continue
		}
		purchases[e.ID] = e
	}
	return purchases, tips
}

var _ ledger.Gateway = (*Client)(nil)
