// Package memory provides in-process stand-ins for the Redis-backed cache
// interfaces, used when Redis is not configured.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/alanyoungcy/solarb/internal/domain"
)

const subscriberBuffer = 128

type subscription struct {
	pattern string
	ch      chan []byte
}

// SignalBus is a single-process domain.SignalBus. Publish never blocks: a
// subscriber whose buffer is full misses the message. Patterns ending in "*"
// match by prefix.
type SignalBus struct {
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

// NewSignalBus creates an empty bus.
func NewSignalBus() *SignalBus {
	return &SignalBus{subs: make(map[*subscription]struct{})}
}

// Publish delivers payload to every matching subscriber.
func (b *SignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		if !matches(s.pattern, channel) {
			continue
		}
		msg := append([]byte(nil), payload...)
		select {
		case s.ch <- msg:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscription that lives until ctx is done, at which
// point the returned channel is closed.
func (b *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	s := &subscription{pattern: channel, ch: make(chan []byte, subscriberBuffer)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, s)
		close(s.ch)
		b.mu.Unlock()
	}()
	return s.ch, nil
}

func matches(pattern, channel string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(channel, prefix)
	}
	return pattern == channel
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
