package finance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meibl/brokerage-engine/finance"
)

func TestSuggestBrokerageSlab(t *testing.T) {
	tests := []struct {
		gross   string
		tier    string
		wantPct string
	}{
		{"0", "low", "20"},
		{"50000", "low", "20"},
		{"99999.99", "low", "20"},
		{"100000", "medium", "15"}, // inclusive lower bound
		{"500000", "medium", "15"},
		{"999999.99", "medium", "15"},
		{"1000000", "high", "10"}, // inclusive lower bound
		{"25000000", "high", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.gross, func(t *testing.T) {
			s := finance.SuggestBrokerageSlab(dec(tt.gross))
			assert.Equal(t, tt.tier, s.Tier)
			assert.True(t, dec(tt.wantPct).Equal(s.BrokeragePct))
		})
	}
}
