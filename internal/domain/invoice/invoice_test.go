package invoice

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestInvoice_DeriveTaxRate(t *testing.T) {
	testCases := []struct {
		name     string
		preTax   *decimal.Decimal
		tax      *decimal.Decimal
		expected *decimal.Decimal
	}{
		{"BothPresent", dec("100.00"), dec("8.25"), dec("0.0825")},
		{"PreTaxMissing", nil, dec("8.25"), nil},
		{"TaxMissing", dec("100.00"), nil, nil},
		{"PreTaxZero", dec("0"), dec("1.00"), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &Invoice{PreTaxTotal: tc.preTax, TaxTotal: tc.tax}
			inv.DeriveTaxRate()
			if tc.expected == nil {
				assert.Nil(t, inv.TaxRate)
				return
			}
			require.NotNil(t, inv.TaxRate)
			assert.True(t, tc.expected.Equal(*inv.TaxRate), "got %s", inv.TaxRate)
		})
	}
}

func TestRequiredFieldMissingError(t *testing.T) {
	err := fmt.Errorf("extract: %w", &RequiredFieldMissingError{OrderID: "1", Field: FieldPreTaxTotal, Anchor: "Total before tax"})
	assert.True(t, errors.Is(err, ErrRequiredFieldMissing))

	var target *RequiredFieldMissingError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, FieldPreTaxTotal, target.Field)
}

func TestRecord_RoundTrip(t *testing.T) {
	date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := &Invoice{
		OrderID: "123-4567",
		Items: []LineItem{
			{Name: "Widget Name, Blue", Quantity: 2, UnitPrice: decimal.RequireFromString("6.17"), Amount: decimal.RequireFromString("12.34")},
		},
		ItemNames:      []string{"Widget Name Blue"},
		PreTaxTotal:    dec("12.34"),
		TaxTotal:       dec("1.02"),
		ChargedAmount:  dec("13.36"),
		SettlementDate: &date,
	}
	inv.DeriveTaxRate()
	runID := uuid.New()

	rec := NewRecord(runID, inv, "ledger-1")
	assert.Equal(t, runID, rec.RunID)
	assert.Equal(t, "12.34", rec.PreTaxTotal)
	assert.Equal(t, "ledger-1", rec.LedgerEntryID)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "6.17", rec.Items[0].UnitPrice)

	back, err := rec.Invoice()
	require.NoError(t, err)
	assert.Equal(t, inv.OrderID, back.OrderID)
	assert.True(t, inv.PreTaxTotal.Equal(*back.PreTaxTotal))
	assert.True(t, inv.TaxTotal.Equal(*back.TaxTotal))
	assert.True(t, inv.ChargedAmount.Equal(*back.ChargedAmount))
	require.NotNil(t, back.TaxRate)
	assert.True(t, back.SettlementDate.Equal(date))
	require.Len(t, back.Items, 1)
	assert.True(t, back.Items[0].Amount.Equal(decimal.RequireFromString("12.34")))
}

func TestRecord_InvoiceRejectsCorruptAmount(t *testing.T) {
	rec := &Record{OrderID: "1", PreTaxTotal: "abc"}
	_, err := rec.Invoice()
	assert.Error(t, err)
}

func TestErrRecordNotFound_Is(t *testing.T) {
	err := fmt.Errorf("lookup: %w", ErrRecordNotFound{OrderID: "1"})
	assert.True(t, errors.Is(err, ErrRecordNotFound{}))
	assert.True(t, errors.Is(err, ErrRecordNotFound{OrderID: "1"}))
	assert.False(t, errors.Is(err, ErrRecordNotFound{OrderID: "2"}))
}
