package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mselser95/polymarket-copytrader/pkg/types"
)

func TestSummarizeTrades(t *testing.T) {
	tests := []struct {
		name          string
		trades        []types.DataAPITrade
		expectedBuys  int
		expectedSells int
	}{
		{
			name: "mixed-sides",
			trades: []types.DataAPITrade{
				{Side: "BUY"},
				{Side: "SELL"},
				{Side: "BUY"},
			},
			expectedBuys:  2,
			expectedSells: 1,
		},
		{
			name: "lowercase-sides-counted",
			trades: []types.DataAPITrade{
				{Side: "buy"},
				{Side: "sell"},
			},
			expectedBuys:  1,
			expectedSells: 1,
		},
		{
			name: "unknown-side-ignored",
			trades: []types.DataAPITrade{
				{Side: "BUY"},
				{Side: "MATCH"},
			},
			expectedBuys:  1,
			expectedSells: 0,
		},
		{
			name:          "empty",
			trades:        nil,
			expectedBuys:  0,
			expectedSells: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buys, sells := summarizeTrades(tt.trades)
			assert.Equal(t, tt.expectedBuys, buys)
			assert.Equal(t, tt.expectedSells, sells)
		})
	}
}

func TestTotalNotional(t *testing.T) {
	trades := []types.DataAPITrade{
		{Size: 100, Price: 0.5},
		{Size: 40, Price: 0.25},
	}

	total := totalNotional(trades)
	require.InDelta(t, 60.0, total, 1e-9)
}

func TestTotalNotional_Empty(t *testing.T) {
	assert.Zero(t, totalNotional(nil))
}
