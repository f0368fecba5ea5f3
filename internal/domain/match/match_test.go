package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResolution(t *testing.T) {
	testCases := []struct {
		name      string
		ledgerIDs []string
		kind      Kind
		uniqueID  string
	}{
		{"None", nil, KindNone, ""},
		{"EmptySlice", []string{}, KindNone, ""},
		{"Unique", []string{"l1"}, KindUnique, "l1"},
		{"Ambiguous", []string{"l1", "l2"}, KindAmbiguous, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolution("o1", tc.ledgerIDs)
			assert.Equal(t, "o1", r.OrderID)
			assert.Equal(t, tc.kind, r.Kind)

			id, ok := r.LedgerEntryID()
			assert.Equal(t, tc.uniqueID != "", ok)
			assert.Equal(t, tc.uniqueID, id)
		})
	}
}
