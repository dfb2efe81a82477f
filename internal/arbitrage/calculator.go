// Package arbitrage computes cross-venue arbitrage opportunities from a set of
// venue quotes for a single asset. Everything here is synchronous arithmetic
// over already-fetched data and is safe for concurrent use.
package arbitrage

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/solarb/internal/domain"
)

const (
	DefaultTradeSize           = 1000.0
	DefaultMinProfitPercent    = 0.1
	DefaultGasOverhead         = 0.50
	DefaultLiquidityMultiplier = 2.0
	// RepriceFeeRate is the blended per-leg fee used when re-projecting an
	// opportunity onto a different trade size.
	RepriceFeeRate = 0.003
)

var hundred = decimal.NewFromInt(100)

// Params controls a single evaluation.
type Params struct {
	TradeSize           float64
	GasOverhead         float64
	MinProfitPercent    float64
	LiquidityMultiplier float64
}

func (p Params) finite() bool {
	for _, v := range []float64{p.TradeSize, p.GasOverhead, p.MinProfitPercent, p.LiquidityMultiplier} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DefaultParams returns the parameters used when the caller supplies none.
func DefaultParams() Params {
	return Params{
		TradeSize:           DefaultTradeSize,
		GasOverhead:         DefaultGasOverhead,
		MinProfitPercent:    DefaultMinProfitPercent,
		LiquidityMultiplier: DefaultLiquidityMultiplier,
	}
}

// Reason explains why Evaluate produced no opportunity.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInsufficientQuotes Reason = "insufficient_quotes"
	ReasonSingleVenue        Reason = "single_venue"
	ReasonLowLiquidity       Reason = "low_liquidity"
	ReasonBelowThreshold     Reason = "below_threshold"
	ReasonInvalidTradeSize   Reason = "invalid_trade_size"
	ReasonInvalidParams      Reason = "invalid_params"
)

// Evaluate looks for a round trip that buys the asset at the cheapest venue
// and sells it at the most expensive one. It returns the opportunity, or nil
// together with the reason the quote set was rejected.
func Evaluate(asset domain.Asset, quotes []domain.Quote, p Params) (*domain.Opportunity, Reason) {
	return evaluateAt(asset, quotes, p, time.Now().UTC())
}

func evaluateAt(asset domain.Asset, quotes []domain.Quote, p Params, now time.Time) (*domain.Opportunity, Reason) {
	if !p.finite() {
		return nil, ReasonInvalidParams
	}
	if p.TradeSize <= 0 {
		return nil, ReasonInvalidTradeSize
	}

	usable := make([]domain.Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.Usable() {
			usable = append(usable, q)
		}
	}
	if len(usable) < 2 {
		return nil, ReasonInsufficientQuotes
	}

	buy, sell := usable[0], usable[0]
	for _, q := range usable[1:] {
		if q.Price < buy.Price {
			buy = q
		}
		if q.Price > sell.Price {
			sell = q
		}
	}
	if buy.Venue == sell.Venue || buy.Price == sell.Price {
		return nil, ReasonSingleVenue
	}

	minRequired := p.TradeSize * p.LiquidityMultiplier
	if buy.Liquidity < minRequired || sell.Liquidity < minRequired {
		return nil, ReasonLowLiquidity
	}

	size := decimal.NewFromFloat(p.TradeSize)
	buyPrice := decimal.NewFromFloat(buy.Price)
	sellPrice := decimal.NewFromFloat(sell.Price)

	tokenAmount := size.Div(buyPrice)
	proceeds := tokenAmount.Mul(sellPrice)
	gross := proceeds.Sub(size)
	fees := size.Mul(decimal.NewFromFloat(buy.Fee)).
		Add(proceeds.Mul(decimal.NewFromFloat(sell.Fee))).
		Add(decimal.NewFromFloat(p.GasOverhead))
	net := gross.Sub(fees)
	profitPercent := net.Div(size).Mul(hundred)

	if profitPercent.LessThan(decimal.NewFromFloat(p.MinProfitPercent)) {
		return nil, ReasonBelowThreshold
	}

	spread := sellPrice.Sub(buyPrice)
	spreadPercent := spread.Div(buyPrice).Mul(hundred).InexactFloat64()
	minLiquidity := min(buy.Liquidity, sell.Liquidity)

	return &domain.Opportunity{
		AssetSymbol:            asset.Symbol,
		AssetMint:              asset.Mint,
		AssetName:              asset.Name,
		BuyVenue:               buy.Venue,
		BuyPrice:               buy.Price,
		BuyLiquidity:           buy.Liquidity,
		SellVenue:              sell.Venue,
		SellPrice:              sell.Price,
		SellLiquidity:          sell.Liquidity,
		Spread:                 spread.InexactFloat64(),
		SpreadPercent:          spreadPercent,
		EstimatedProfit:        net.InexactFloat64(),
		EstimatedProfitPercent: profitPercent.InexactFloat64(),
		MinLiquidity:           minLiquidity,
		Confidence:             ScoreConfidence(spreadPercent, minLiquidity/p.TradeSize),
		ComputedAt:             now,
	}, ReasonNone
}

// Projection is the re-projected profit of an opportunity at another size.
type Projection struct {
	Profit        float64 `json:"profit"`
	ProfitPercent float64 `json:"profitPercent"`
}

var errInvalidReprice = errors.New("arbitrage: reprice needs a finite positive trade size and buy price")

// Reprice is RepriceWith at the default gas overhead.
func Reprice(opp domain.Opportunity, tradeSize float64) (Projection, error) {
	return RepriceWith(opp, tradeSize, DefaultGasOverhead)
}

// RepriceWith recomputes profit for tradeSize using the opportunity's buy and
// sell prices, the blended RepriceFeeRate on both legs and gasOverhead.
// Venues are not consulted.
func RepriceWith(opp domain.Opportunity, tradeSize, gasOverhead float64) (Projection, error) {
	for _, v := range []float64{tradeSize, gasOverhead, opp.BuyPrice, opp.SellPrice} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Projection{}, errInvalidReprice
		}
	}
	if tradeSize <= 0 || opp.BuyPrice <= 0 {
		return Projection{}, errInvalidReprice
	}
	size := decimal.NewFromFloat(tradeSize)
	feeRate := decimal.NewFromFloat(RepriceFeeRate)

	tokenAmount := size.Div(decimal.NewFromFloat(opp.BuyPrice))
	proceeds := tokenAmount.Mul(decimal.NewFromFloat(opp.SellPrice))
	gross := proceeds.Sub(size)
	fees := size.Mul(feeRate).Add(proceeds.Mul(feeRate)).Add(decimal.NewFromFloat(gasOverhead))
	profit := gross.Sub(fees)

	return Projection{
		Profit:        profit.InexactFloat64(),
		ProfitPercent: profit.Div(size).Mul(hundred).InexactFloat64(),
	}, nil
}
