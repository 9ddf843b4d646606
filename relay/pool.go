package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// PoolTransport adapts go-nostr's SimplePool to Transport.
type PoolTransport struct {
	pool *nostr.SimplePool
}

var _ Transport = (*PoolTransport)(nil)

// NewPoolTransport creates a SimplePool whose connections live until ctx is done.
func NewPoolTransport(ctx context.Context) *PoolTransport {
	return &PoolTransport{pool: nostr.NewSimplePool(ctx)}
}

// PublishMany publishes to every URL in its own goroutine and reports each outcome.
// Connecting and publishing are both bounded by ctx.
func (t *PoolTransport) PublishMany(ctx context.Context, urls []string, event nostr.Event) <-chan Result {
	out := make(chan Result, len(urls))
	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			out <- Result{URL: url, Err: t.publishOne(ctx, url, event)}
		}(url)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (t *PoolTransport) publishOne(ctx context.Context, url string, event nostr.Event) error {
	type connected struct {
		relay *nostr.Relay
		err   error
	}
	// EnsureRelay has its own connect timeout and ignores ctx.
	done := make(chan connected, 1)
	go func() {
		relay, err := t.pool.EnsureRelay(url)
		done <- connected{relay: relay, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("connect: %w", ctx.Err())
	case conn := <-done:
		if conn.err != nil {
			return conn.err
		}
		return conn.relay.Publish(ctx, event)
	}
}

// SubscribeMany merges the subscription streams of every URL.
func (t *PoolTransport) SubscribeMany(ctx context.Context, urls []string, filter nostr.Filter) <-chan Delivery {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		for relayEvent := range t.pool.SubscribeMany(ctx, urls, filter) {
			delivery := Delivery{Event: relayEvent.Event}
			if relayEvent.Relay != nil {
				delivery.RelayURL = relayEvent.Relay.URL
			}
			select {
			case out <- delivery:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
