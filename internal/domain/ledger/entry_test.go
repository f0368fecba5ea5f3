package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_ScaledAmount(t *testing.T) {
	e := &Entry{Amount: -12340}
	assert.True(t, decimal.RequireFromString("-12.34").Equal(e.ScaledAmount(1000)))
	assert.True(t, decimal.RequireFromString("-1234").Equal(e.ScaledAmount(10)))
}

func TestEntry_HasMemo(t *testing.T) {
	empty := ""
	memo := "groceries"
	assert.False(t, (&Entry{}).HasMemo())
	assert.False(t, (&Entry{Memo: &empty}).HasMemo())
	assert.True(t, (&Entry{Memo: &memo}).HasMemo())
}

func TestResolveBudget(t *testing.T) {
	budgets := []Budget{{ID: "b1", Name: "Home"}, {ID: "b2", Name: "Work"}}

	t.Run("ConfiguredFound", func(t *testing.T) {
		id, err := ResolveBudget(budgets, "b2")
		require.NoError(t, err)
		assert.Equal(t, "b2", id)
	})

	t.Run("ConfiguredMissing", func(t *testing.T) {
		_, err := ResolveBudget(budgets, "b3")
		assert.True(t, errors.Is(err, ErrBudgetNotFound{}))
		assert.Contains(t, err.Error(), "b3")
	})

	t.Run("SingleBudgetImplicit", func(t *testing.T) {
		id, err := ResolveBudget(budgets[:1], "")
		require.NoError(t, err)
		assert.Equal(t, "b1", id)
	})

	t.Run("AmbiguousWithoutConfiguration", func(t *testing.T) {
		_, err := ResolveBudget(budgets, "")
		assert.True(t, errors.Is(err, ErrBudgetNotFound{}))
	})
}
