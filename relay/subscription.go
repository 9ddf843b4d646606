package relay

import (
	"sync"
	"sync/atomic"

	"github.com/nbd-wtf/go-nostr"
	"github.com/rs/zerolog"
)

// Subscription is the handle of a merged relay subscription.
type Subscription struct {
	ID string

	cancel func()
	done   chan struct{}

	// mu is held for the whole of each handler call.
	mu          sync.Mutex
	closing     atomic.Bool
	closed      atomic.Bool
	dispatching atomic.Bool
}

// Close terminates the underlying relay subscriptions. It is idempotent, safe to call from
// inside the handler, and no handler call starts after it returns.
func (s *Subscription) Close() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	s.cancel()

	if s.dispatching.Load() {
		// A handler is running, possibly the caller itself; the dispatch
		// loop re-checks closed before the next call.
		s.closed.Store(true)
		return
	}

	s.mu.Lock()
	s.closed.Store(true)
	s.mu.Unlock()
}

// Done is closed once the dispatch loop has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) dispatch(deliveries <-chan Delivery, seen *seenSet, handler func(*nostr.Event), logger zerolog.Logger) {
	defer close(s.done)

	for delivery := range deliveries {
		event := delivery.Event
		if event == nil {
			continue
		}
		if event.ID != "" && !seen.Add(event.ID) {
			logger.Debug().Str("event_id", event.ID).Str("relay", delivery.RelayURL).Msg("duplicate delivery dropped")
			continue
		}
		if !s.deliver(event, handler) {
			return
		}
	}
}

func (s *Subscription) deliver(event *nostr.Event, handler func(*nostr.Event)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return false
	}

	s.dispatching.Store(true)
	defer s.dispatching.Store(false)
	handler(event)
	return true
}
