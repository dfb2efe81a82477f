package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/solarb/internal/domain"
	"github.com/alanyoungcy/solarb/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type countingScanner struct {
	runs  atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingScanner) Run(ctx context.Context, _ service.ScanRequest) (domain.ScanReport, error) {
	s.runs.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return domain.EmptyReport(time.Now()), s.err
	}
	return domain.ScanReport{ID: "r", TotalAssets: 1, SuccessfulScans: 1, CompletedAt: time.Now()}, nil
}

func (s *countingScanner) DefaultRequest() service.ScanRequest {
	return service.ScanRequest{TradeSize: 1000, MinProfitPercent: 0.1}
}

func TestStartScansImmediatelyAndOnTicks(t *testing.T) {
	sc := &countingScanner{}
	cs := NewContinuousScanner(sc, nil, 0, testLogger())

	var reports atomic.Int32
	stop := cs.Start(context.Background(), 20*time.Millisecond, func(r domain.ScanReport, err error) {
		assert.NoError(t, err)
		reports.Add(1)
	})
	defer stop()

	require.Eventually(t, func() bool { return reports.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestStopPreventsFurtherScans(t *testing.T) {
	sc := &countingScanner{}
	cs := NewContinuousScanner(sc, nil, 0, testLogger())

	stop := cs.Start(context.Background(), 10*time.Millisecond, nil)
	require.Eventually(t, func() bool { return sc.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	stop()
	stop() // idempotent

	// allow at most one scan that was already in flight
	time.Sleep(20 * time.Millisecond)
	settled := sc.runs.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, sc.runs.Load())
}

func TestStopDoesNotInterruptInFlightScan(t *testing.T) {
	sc := &countingScanner{delay: 100 * time.Millisecond}
	cs := NewContinuousScanner(sc, nil, 0, testLogger())

	done := make(chan struct{})
	stop := cs.Start(context.Background(), time.Hour, func(domain.ScanReport, error) { close(done) })
	require.Eventually(t, func() bool { return sc.runs.Load() == 1 }, time.Second, time.Millisecond)
	stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("in-flight scan did not deliver its report")
	}
}

func TestRunLoopReportsFailures(t *testing.T) {
	sc := &countingScanner{err: domain.ErrCatalogUnavailable}
	cs := NewContinuousScanner(sc, nil, 0, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	var gotErr atomic.Value
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	err := cs.RunLoop(ctx, 10*time.Millisecond, func(r domain.ScanReport, err error) {
		gotErr.Store(err)
		assert.NotNil(t, r.Opportunities)
	})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, gotErr.Load().(error), domain.ErrCatalogUnavailable)
}

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLock) Acquire(context.Context, string, time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	if l.held {
		return nil, domain.ErrLockHeld
	}
	return func() {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
	}, nil
}

func TestLockHeldSkipsCycle(t *testing.T) {
	sc := &countingScanner{}
	cs := NewContinuousScanner(sc, &fakeLock{held: true}, time.Second, testLogger())

	cs.runOnce(context.Background(), nil)
	assert.Equal(t, int32(0), sc.runs.Load())
}

func TestLockReleasedAfterScan(t *testing.T) {
	sc := &countingScanner{}
	lock := &fakeLock{}
	cs := NewContinuousScanner(sc, lock, time.Second, testLogger())

	cs.runOnce(context.Background(), nil)
	assert.Equal(t, int32(1), sc.runs.Load())
	assert.Equal(t, 1, lock.unlocked)
}

func TestLockErrorFailsOpen(t *testing.T) {
	sc := &countingScanner{}
	cs := NewContinuousScanner(sc, &fakeLock{err: errors.New("redis down")}, time.Second, testLogger())

	cs.runOnce(context.Background(), nil)
	assert.Equal(t, int32(1), sc.runs.Load())
}
