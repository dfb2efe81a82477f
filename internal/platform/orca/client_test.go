package orca

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/platform/httpclient"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	bonkMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
)

const listBody = `{"whirlpools":[
	{"address":"small","tokenA":{"mint":"` + solMint + `"},"tokenB":{"mint":"` + domain.USDCMint + `"},"price":149,"lpFeeRate":0.003,"tvl":1000},
	{"address":"deep","tokenA":{"mint":"` + solMint + `"},"tokenB":{"mint":"` + domain.USDCMint + `"},"price":150,"lpFeeRate":0.0004,"tvl":5000000},
	{"address":"inverted","tokenA":{"mint":"` + domain.USDCMint + `"},"tokenB":{"mint":"` + bonkMint + `"},"price":50000,"lpFeeRate":0.003,"tvl":20000},
	{"address":"other","tokenA":{"mint":"` + solMint + `"},"tokenB":{"mint":"` + bonkMint + `"},"price":7000000,"tvl":9000000}
],"hasMore":false}`

func newClient(t *testing.T, calls *atomic.Int32) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/whirlpool/list", r.URL.Path)
		calls.Add(1)
		w.Write([]byte(listBody))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, httpclient.Options{})
}

func TestQuotePicksDeepestUSDCPool(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, &calls)

	q, err := c.Quote(context.Background(), domain.Asset{Symbol: "SOL", Mint: solMint})
	require.NoError(t, err)
	assert.Equal(t, VenueName, q.Venue)
	assert.Equal(t, 150.0, q.Price)
	assert.Equal(t, 5000000.0, q.Liquidity)
	assert.Equal(t, 0.0004, q.Fee)
	assert.Equal(t, "deep", q.PoolRef)
}

func TestQuoteInvertsWhenAssetIsTokenB(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, &calls)

	q, err := c.Quote(context.Background(), domain.Asset{Symbol: "BONK", Mint: bonkMint})
	require.NoError(t, err)
	assert.InDelta(t, 0.00002, q.Price, 1e-12)
	assert.Equal(t, "inverted", q.PoolRef)
}

func TestQuoteNoPool(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, &calls)

	_, err := c.Quote(context.Background(), domain.Asset{Symbol: "JUP", Mint: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWhirlpoolListIsCached(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, &calls)

	for i := 0; i < 3; i++ {
		_, err := c.Quote(context.Background(), domain.Asset{Symbol: "SOL", Mint: solMint})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCanceledCallerDoesNotFailSharedFetch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		w.Write([]byte(listBody))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, httpclient.Options{})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Whirlpools(firstCtx)
		firstErr <- err
	}()
	<-started

	secondDone := make(chan error, 1)
	var pools []Whirlpool
	go func() {
		var err error
		pools, err = c.Whirlpools(context.Background())
		secondDone <- err
	}()

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	require.NoError(t, <-secondDone)
	assert.Len(t, pools, 4)
	assert.Equal(t, int32(1), calls.Load())
}
