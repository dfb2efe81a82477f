// Package solana reads cluster health and recent activity from a Solana RPC
// endpoint.
package solana

import (
	"context"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/solarb/internal/domain"
)

// rpcAPI is the subset of the RPC client used here.
type rpcAPI interface {
	GetSlot(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetVersion(ctx context.Context) (*rpc.GetVersionResult, error)
	GetRecentPerformanceSamples(ctx context.Context, limit *uint) ([]*rpc.GetRecentPerformanceSamplesResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solanago.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
}

// Client wraps an RPC connection.
type Client struct {
	rpc rpcAPI
	now func() time.Time
}

// NewClient dials nothing; requests are issued lazily against endpoint.
func NewClient(endpoint string) *Client {
	return &Client{rpc: rpc.New(endpoint), now: time.Now}
}

// Status returns the current slot, block height and node version. A version
// lookup failure is tolerated.
func (c *Client) Status(ctx context.Context) (domain.NetworkStatus, error) {
	var (
		status  domain.NetworkStatus
		g, gctx = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		slot, err := c.rpc.GetSlot(gctx, rpc.CommitmentConfirmed)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		status.Slot = slot
		return nil
	})
	g.Go(func() error {
		height, err := c.rpc.GetBlockHeight(gctx, rpc.CommitmentConfirmed)
		if err != nil {
			return fmt.Errorf("get block height: %w", err)
		}
		status.BlockHeight = height
		return nil
	})
	g.Go(func() error {
		if v, err := c.rpc.GetVersion(gctx); err == nil && v != nil {
			status.Version = v.SolanaCore
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.NetworkStatus{}, fmt.Errorf("solana: status: %w", err)
	}
	status.ObservedAt = c.now().UTC()
	return status, nil
}

// Performance returns the most recent performance sample, or nil when the
// node reports none.
func (c *Client) Performance(ctx context.Context) (*domain.PerformanceSample, error) {
	limit := uint(1)
	samples, err := c.rpc.GetRecentPerformanceSamples(ctx, &limit)
	if err != nil {
		return nil, fmt.Errorf("solana: performance: %w", err)
	}
	if len(samples) == 0 || samples[0] == nil {
		return nil, nil
	}

	s := samples[0]
	out := &domain.PerformanceSample{
		TxCount:          s.NumTransactions,
		SlotCount:        s.NumSlots,
		SamplePeriodSecs: s.SamplePeriodSecs,
	}
	if s.SamplePeriodSecs > 0 {
		out.TPS = float64(s.NumTransactions) / float64(s.SamplePeriodSecs)
	}
	return out, nil
}

// RecentSignatures lists the latest transaction signatures that touched
// programID, newest first.
func (c *Client) RecentSignatures(ctx context.Context, programID string, limit int) ([]domain.SignatureInfo, error) {
	pk, err := solanago.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("solana: recent signatures: invalid program id %q: %w", programID, err)
	}

	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("solana: recent signatures: %w", err)
	}

	out := make([]domain.SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		if s == nil {
			continue
		}
		info := domain.SignatureInfo{
			Signature: s.Signature.String(),
			Slot:      s.Slot,
			Success:   s.Err == nil,
		}
		if s.BlockTime != nil {
			info.BlockTime = s.BlockTime.Time().UTC()
		}
		out = append(out, info)
	}
	return out, nil
}

// ValidMint reports whether s is a well-formed base58 public key.
func ValidMint(s string) bool {
	_, err := solanago.PublicKeyFromBase58(s)
	return err == nil
}
