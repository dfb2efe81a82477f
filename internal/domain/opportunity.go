package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Confidence is a coarse rating of how actionable an opportunity is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels: low < medium < high. Unknown values rank
// below low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceLow:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceHigh:
		return 2
	default:
		return -1
	}
}

// ParseConfidence converts a case-insensitive level name into a Confidence.
func ParseConfidence(s string) (Confidence, error) {
	c := Confidence(strings.ToLower(strings.TrimSpace(s)))
	if c.Rank() < 0 {
		return "", fmt.Errorf("unknown confidence level %q", s)
	}
	return c, nil
}

// Opportunity is an arbitrage signal for one asset computed from a single
// quote set. It has no identity across scans.
type Opportunity struct {
	AssetSymbol            string
	AssetMint              string
	AssetName              string
	BuyVenue               string
	BuyPrice               float64
	BuyLiquidity           float64
	SellVenue              string
	SellPrice              float64
	SellLiquidity          float64
	Spread                 float64
	SpreadPercent          float64
	EstimatedProfit        float64
	EstimatedProfitPercent float64
	MinLiquidity           float64
	Confidence             Confidence
	ComputedAt             time.Time
}

type opportunityJSON struct {
	AssetSymbol            string     `json:"assetSymbol"`
	AssetMint              string     `json:"assetMint"`
	AssetName              string     `json:"assetName"`
	BuyVenue               string     `json:"buyVenue"`
	BuyPrice               float64    `json:"buyPrice"`
	BuyLiquidity           float64    `json:"buyLiquidity"`
	SellVenue              string     `json:"sellVenue"`
	SellPrice              float64    `json:"sellPrice"`
	SellLiquidity          float64    `json:"sellLiquidity"`
	Spread                 float64    `json:"spread"`
	SpreadPercent          float64    `json:"spreadPercent"`
	EstimatedProfit        float64    `json:"estimatedProfit"`
	EstimatedProfitPercent float64    `json:"estimatedProfitPercent"`
	MinLiquidity           float64    `json:"minLiquidity"`
	Confidence             Confidence `json:"confidence"`
	ComputedAt             int64      `json:"computedAt"`
}

// MarshalJSON renders the flat wire shape with computedAt in unix milliseconds.
func (o Opportunity) MarshalJSON() ([]byte, error) {
	return json.Marshal(opportunityJSON{
		AssetSymbol:            o.AssetSymbol,
		AssetMint:              o.AssetMint,
		AssetName:              o.AssetName,
		BuyVenue:               o.BuyVenue,
		BuyPrice:               o.BuyPrice,
		BuyLiquidity:           o.BuyLiquidity,
		SellVenue:              o.SellVenue,
		SellPrice:              o.SellPrice,
		SellLiquidity:          o.SellLiquidity,
		Spread:                 o.Spread,
		SpreadPercent:          o.SpreadPercent,
		EstimatedProfit:        o.EstimatedProfit,
		EstimatedProfitPercent: o.EstimatedProfitPercent,
		MinLiquidity:           o.MinLiquidity,
		Confidence:             o.Confidence,
		ComputedAt:             unixMillis(o.ComputedAt),
	})
}

// UnmarshalJSON accepts the wire shape produced by MarshalJSON.
func (o *Opportunity) UnmarshalJSON(data []byte) error {
	var w opportunityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = Opportunity{
		AssetSymbol:            w.AssetSymbol,
		AssetMint:              w.AssetMint,
		AssetName:              w.AssetName,
		BuyVenue:               w.BuyVenue,
		BuyPrice:               w.BuyPrice,
		BuyLiquidity:           w.BuyLiquidity,
		SellVenue:              w.SellVenue,
		SellPrice:              w.SellPrice,
		SellLiquidity:          w.SellLiquidity,
		Spread:                 w.Spread,
		SpreadPercent:          w.SpreadPercent,
		EstimatedProfit:        w.EstimatedProfit,
		EstimatedProfitPercent: w.EstimatedProfitPercent,
		MinLiquidity:           w.MinLiquidity,
		Confidence:             w.Confidence,
	}
	if w.ComputedAt > 0 {
		o.ComputedAt = time.UnixMilli(w.ComputedAt).UTC()
	}
	return nil
}

func unixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
