package arbitrage

import (
	"sort"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// SortByProfit returns a copy of opps ordered by EstimatedProfitPercent,
// highest first.
func SortByProfit(opps []domain.Opportunity) []domain.Opportunity {
	out := make([]domain.Opportunity, len(opps))
	copy(out, opps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimatedProfitPercent > out[j].EstimatedProfitPercent
	})
	return out
}

// FilterByMinProfit keeps opportunities whose EstimatedProfitPercent is at
// least minPercent.
func FilterByMinProfit(opps []domain.Opportunity, minPercent float64) []domain.Opportunity {
	out := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.EstimatedProfitPercent >= minPercent {
			out = append(out, o)
		}
	}
	return out
}

// FilterByConfidence keeps opportunities rated at level or above.
func FilterByConfidence(opps []domain.Opportunity, level domain.Confidence) []domain.Opportunity {
	out := make([]domain.Opportunity, 0, len(opps))
	for _, o := range opps {
		if o.Confidence.Rank() >= level.Rank() {
			out = append(out, o)
		}
	}
	return out
}
