package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/alanyoungcy/solarb/internal/arbitrage"
	"github.com/alanyoungcy/solarb/internal/domain"
)

// maxAlertLines caps how many opportunities one alert lists.
const maxAlertLines = 10

// OpportunityAlerter sends an arb_detected alert for the opportunities of a
// scan that reach the configured confidence.
type OpportunityAlerter struct {
	notifier      *Notifier
	minConfidence domain.Confidence
}

// NewOpportunityAlerter creates an alerter. An invalid minConfidence falls
// back to high.
func NewOpportunityAlerter(n *Notifier, minConfidence string) *OpportunityAlerter {
	level, err := domain.ParseConfidence(minConfidence)
	if err != nil {
		level = domain.ConfidenceHigh
	}
	return &OpportunityAlerter{notifier: n, minConfidence: level}
}

// AlertOpportunities notifies about opps at or above the confidence floor. It
// is a no-op when nothing qualifies or no sender is configured.
func (a *OpportunityAlerter) AlertOpportunities(ctx context.Context, opps []domain.Opportunity) error {
	if !a.notifier.Enabled() {
		return nil
	}
	qualifying := arbitrage.FilterByConfidence(opps, a.minConfidence)
	if len(qualifying) == 0 {
		return nil
	}
	title := fmt.Sprintf("%d arbitrage opportunit%s", len(qualifying), plural(len(qualifying)))
	return a.notifier.Notify(ctx, EventArbDetected, title, FormatOpportunities(qualifying))
}

// FormatOpportunities renders one line per opportunity, best first as given.
func FormatOpportunities(opps []domain.Opportunity) string {
	var b strings.Builder
	for i, o := range opps {
		if i == maxAlertLines {
			fmt.Fprintf(&b, "... and %d more\n", len(opps)-maxAlertLines)
			break
		}
		fmt.Fprintf(&b, "%s: buy %s @ %.6f, sell %s @ %.6f, profit $%.2f (%.2f%%) [%s]\n",
			o.AssetSymbol, o.BuyVenue, o.BuyPrice, o.SellVenue, o.SellPrice,
			o.EstimatedProfit, o.EstimatedProfitPercent, o.Confidence)
	}
	return strings.TrimRight(b.String(), "\n")
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
