package domain

import (
	"encoding/json"
	"time"
)

// NetworkStatus is a point-in-time view of the Solana cluster.
type NetworkStatus struct {
	Slot        uint64    `json:"slot"`
	BlockHeight uint64    `json:"blockHeight"`
	Version     string    `json:"version,omitempty"`
	ObservedAt  time.Time `json:"-"`
}

// PerformanceSample summarises one RPC performance sample.
type PerformanceSample struct {
	TxCount          uint64  `json:"numTransactions"`
	SlotCount        uint64  `json:"numSlots"`
	SamplePeriodSecs uint16  `json:"samplePeriodSecs"`
	TPS              float64 `json:"tps"`
}

// SignatureInfo is a recent transaction signature touching a program.
type SignatureInfo struct {
	Signature string    `json:"signature"`
	Slot      uint64    `json:"slot"`
	BlockTime time.Time `json:"-"`
	Success   bool      `json:"success"`
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// SpotPrice is an aggregator spot price with its 24h change.
type SpotPrice struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

// NetworkSnapshot pairs a status reading with the latest performance sample.
type NetworkSnapshot struct {
	Status      NetworkStatus
	Performance *PerformanceSample
}

type networkSnapshotJSON struct {
	BlockHeight uint64             `json:"blockHeight"`
	Slot        uint64             `json:"slot"`
	Version     string             `json:"version,omitempty"`
	Timestamp   int64              `json:"timestamp"`
	Performance *PerformanceSample `json:"performance,omitempty"`
}

// MarshalJSON renders the flat network wire shape.
func (s NetworkSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(networkSnapshotJSON{
		BlockHeight: s.Status.BlockHeight,
		Slot:        s.Status.Slot,
		Version:     s.Status.Version,
		Timestamp:   unixMillis(s.Status.ObservedAt),
		Performance: s.Performance,
	})
}
