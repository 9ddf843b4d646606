// Package relaytest provides an in-memory relay.Transport for tests.
package relaytest

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"bitnostr/relay"
)

// Transport records publishes and lets tests push events into open subscriptions.
type Transport struct {
	// Reject maps relay URLs to the error they answer publishes with.
	Reject map[string]error
	// Delay is applied to every per-relay publish attempt.
	Delay time.Duration

	mu        sync.Mutex
	published []nostr.Event
	settled   int
	filters   []nostr.Filter
	subs      []*subscription
}

type subscription struct {
	ctx  context.Context
	urls []string
	out  chan relay.Delivery

	mu     sync.Mutex
	closed bool
}

var _ relay.Transport = (*Transport)(nil)

// NewTransport returns an empty fake transport.
func NewTransport() *Transport {
	return &Transport{Reject: make(map[string]error)}
}

// PublishMany settles one attempt per URL concurrently.
func (t *Transport) PublishMany(ctx context.Context, urls []string, event nostr.Event) <-chan relay.Result {
	t.mu.Lock()
	t.published = append(t.published, event)
	t.mu.Unlock()

	out := make(chan relay.Result, len(urls))
	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			if t.Delay > 0 {
				time.Sleep(t.Delay)
			}
			err := t.Reject[url]
			if err == nil {
				err = ctx.Err()
			}
			t.mu.Lock()
			t.settled++
			t.mu.Unlock()
			out <- relay.Result{URL: url, Err: err}
		}(url)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// SubscribeMany registers a subscription that Emit can deliver to.
func (t *Transport) SubscribeMany(ctx context.Context, urls []string, filter nostr.Filter) <-chan relay.Delivery {
	sub := &subscription{
		ctx:  ctx,
		urls: append([]string(nil), urls...),
		out:  make(chan relay.Delivery),
	}

	t.mu.Lock()
	t.filters = append(t.filters, filter)
	t.subs = append(t.subs, sub)
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.mu.Lock()
		sub.closed = true
		close(sub.out)
		sub.mu.Unlock()
	}()
	return sub.out
}

// Emit delivers event as if relayURL had sent it to every open subscription.
// It returns how many subscriptions accepted the delivery.
func (t *Transport) Emit(event *nostr.Event, relayURL string) int {
	t.mu.Lock()
	subs := append([]*subscription(nil), t.subs...)
	t.mu.Unlock()

	delivered := 0
	for _, sub := range subs {
		if sub.send(relay.Delivery{Event: event, RelayURL: relayURL}) {
			delivered++
		}
	}
	return delivered
}

func (s *subscription) send(delivery relay.Delivery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.out <- delivery:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Published returns every event handed to PublishMany.
func (t *Transport) Published() []nostr.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]nostr.Event(nil), t.published...)
}

// Settled returns how many per-relay publish attempts have completed.
func (t *Transport) Settled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled
}

// Filters returns every filter passed to SubscribeMany.
func (t *Transport) Filters() []nostr.Filter {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]nostr.Filter(nil), t.filters...)
}

// Relays returns the URL set of the most recent subscription.
func (t *Transport) Relays() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.subs) == 0 {
		return nil
	}
	return append([]string(nil), t.subs[len(t.subs)-1].urls...)
}
