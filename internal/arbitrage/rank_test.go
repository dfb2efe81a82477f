package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/solarb/internal/domain"
)

func opps() []domain.Opportunity {
	return []domain.Opportunity{
		{AssetSymbol: "BONK", EstimatedProfitPercent: 0.2, Confidence: domain.ConfidenceLow},
		{AssetSymbol: "SOL", EstimatedProfitPercent: 1.4, Confidence: domain.ConfidenceHigh},
		{AssetSymbol: "JUP", EstimatedProfitPercent: 0.1, Confidence: domain.ConfidenceMedium},
		{AssetSymbol: "WIF", EstimatedProfitPercent: 0.7, Confidence: domain.ConfidenceMedium},
	}
}

func TestSortByProfit(t *testing.T) {
	in := opps()
	sorted := SortByProfit(in)

	var symbols []string
	for _, o := range sorted {
		symbols = append(symbols, o.AssetSymbol)
	}
	assert.Equal(t, []string{"SOL", "WIF", "BONK", "JUP"}, symbols)
	assert.Equal(t, "BONK", in[0].AssetSymbol, "input must not be reordered")

	assert.Empty(t, SortByProfit(nil))
}

func TestFilterByMinProfit(t *testing.T) {
	got := FilterByMinProfit(opps(), 0.2)
	assert.Len(t, got, 3)
	for _, o := range got {
		assert.GreaterOrEqual(t, o.EstimatedProfitPercent, 0.2)
	}
	assert.Equal(t, got, FilterByMinProfit(got, 0.2))
}

func TestFilterByConfidence(t *testing.T) {
	assert.Len(t, FilterByConfidence(opps(), domain.ConfidenceLow), 4)
	assert.Len(t, FilterByConfidence(opps(), domain.ConfidenceMedium), 3)

	high := FilterByConfidence(opps(), domain.ConfidenceHigh)
	assert.Len(t, high, 1)
	assert.Equal(t, "SOL", high[0].AssetSymbol)
}
