package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
)

const (
	// DefaultPublishTimeout bounds one publish fan-out.
	DefaultPublishTimeout = 15 * time.Second
	// DefaultSeenCacheSize bounds the per-subscription duplicate filter.
	DefaultSeenCacheSize = 4096
)

// FanoutOptions configures a Fanout.
type FanoutOptions struct {
	Relays    []string
	Transport Transport
	Logger    zerolog.Logger

	PublishTimeout time.Duration
	SeenCacheSize  int
}

// Fanout publishes to and subscribes across the configured relay set.
type Fanout struct {
	transport      Transport
	logger         zerolog.Logger
	publishTimeout time.Duration
	seenCacheSize  int

	mu     sync.RWMutex
	relays []string
}

// NewFanout validates options and applies defaults.
func NewFanout(options FanoutOptions) (*Fanout, error) {
	if options.Transport == nil {
		return nil, ErrNoTransport
	}
	if options.PublishTimeout <= 0 {
		options.PublishTimeout = DefaultPublishTimeout
	}
	if options.SeenCacheSize <= 0 {
		options.SeenCacheSize = DefaultSeenCacheSize
	}

	return &Fanout{
		transport:      options.Transport,
		logger:         options.Logger,
		publishTimeout: options.PublishTimeout,
		seenCacheSize:  options.SeenCacheSize,
		relays:         NormalizeRelays(options.Relays),
	}, nil
}

// Relays returns a snapshot of the relay set.
func (f *Fanout) Relays() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.relays...)
}

// AddRelays adds relays not already present and returns how many were added.
// Subscriptions opened earlier keep their original relay set.
func (f *Fanout) AddRelays(urls ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	before := len(f.relays)
	f.relays = NormalizeRelays(append(f.relays, urls...))
	return len(f.relays) - before
}

// RemoveRelays drops relays from the set and returns how many were removed.
func (f *Fanout) RemoveRelays(urls ...string) int {
	drop := make(map[string]struct{}, len(urls))
	for _, url := range NormalizeRelays(urls) {
		drop[url] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.relays[:0:0]
	for _, url := range f.relays {
		if _, ok := drop[url]; !ok {
			kept = append(kept, url)
		}
	}
	removed := len(f.relays) - len(kept)
	f.relays = kept
	return removed
}

// Publish sends the event to every relay and waits until each attempt has settled.
// Individual relay failures never fail the call; they are reported and logged.
// Cancelling ctx does not abort attempts already issued.
func (f *Fanout) Publish(ctx context.Context, event nostr.Event) Report {
	urls := f.Relays()

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.publishTimeout)
	defer cancel()

	outcomes := make(map[string]error, len(urls))
	for result := range f.transport.PublishMany(publishCtx, urls, event) {
		outcomes[result.URL] = result.Err
	}

	report := newReport(event.ID, urls, outcomes)
	for _, failed := range report.Failed() {
		f.logger.Warn().
			Str("relay", failed.URL).
			Str("event_id", event.ID).
			Err(failed.Err).
			Msg("relay rejected publish")
	}
	f.logger.Debug().
		Str("event_id", event.ID).
		Int("kind", event.Kind).
		Int("accepted", report.Accepted()).
		Int("failed", len(report.Failed())).
		Msg("publish settled")

	return report
}

// Subscribe opens one merged subscription across all relays. The handler is called from a
// single goroutine, one event at a time, with duplicate event IDs dropped.
func (f *Fanout) Subscribe(ctx context.Context, filter nostr.Filter, handler func(*nostr.Event)) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	urls := f.Relays()
	deliveries := f.transport.SubscribeMany(subCtx, urls, filter)
	logger := f.logger.With().Str("subscription", sub.ID).Logger()
	logger.Debug().Ints("kinds", filter.Kinds).Int("relays", len(urls)).Msg("subscription opened")

	go sub.dispatch(deliveries, newSeenSet(f.seenCacheSize), handler, logger)
	return sub
}
