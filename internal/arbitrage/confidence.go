package arbitrage

import "github.com/alanyoungcy/solarb/internal/domain"

// Confidence cutoffs. Both conditions of a tier must hold.
const (
	highSpreadPercent    = 1.0
	highLiquidityRatio   = 10.0
	mediumSpreadPercent  = 0.5
	mediumLiquidityRatio = 5.0
)

// ScoreConfidence rates an opportunity from its spread and from the ratio of
// the shallower venue's liquidity to the trade size.
func ScoreConfidence(spreadPercent, liquidityRatio float64) domain.Confidence {
	switch {
	case spreadPercent > highSpreadPercent && liquidityRatio > highLiquidityRatio:
		return domain.ConfidenceHigh
	case spreadPercent > mediumSpreadPercent && liquidityRatio > mediumLiquidityRatio:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
