package discovery

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/nbd-wtf/go-nostr"

	"bitnostr/models"
)

const (
	// EventRelayUpserted is emitted when a relay appears or its metadata changes.
	EventRelayUpserted EventType = "relay_upserted"
	// EventRelayRemoved is emitted when a previously seen relay disappears.
	EventRelayRemoved EventType = "relay_removed"
)

// EventType identifies relay discovery updates.
type EventType string

// Event carries one discovery update.
type Event struct {
	Type  EventType
	Relay models.DiscoveredRelay
}

type refreshRequest struct {
	ctx  context.Context
	done chan error
}

// RelayScanner discovers relays with periodic and manual mDNS browse operations.
type RelayScanner struct {
	cfg Config

	browse browseFunc

	mu     sync.RWMutex
	relays map[string]models.DiscoveredRelay

	events chan Event

	startOnce sync.Once
	stopOnce  sync.Once

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	refreshRequests chan refreshRequest
}

// NewRelayScanner creates a scanner with config defaults applied.
func NewRelayScanner(config Config) (*RelayScanner, error) {
	cfg := config.withDefaults()

	browse := cfg.browseFn
	if browse == nil {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, err
		}
		browse = resolver.Browse
	}

	return &RelayScanner{
		cfg:             cfg,
		browse:          browse,
		relays:          make(map[string]models.DiscoveredRelay),
		events:          make(chan Event, 128),
		refreshRequests: make(chan refreshRequest),
	}, nil
}

// Start begins background relay scanning.
func (s *RelayScanner) Start() error {
	s.startOnce.Do(func() {
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.wg.Add(1)
		go s.loop()
	})
	return nil
}

// Stop stops background scanning and closes the event channel.
func (s *RelayScanner) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		close(s.events)
	})
}

// Events provides asynchronous discovery updates.
func (s *RelayScanner) Events() <-chan Event {
	return s.events
}

// Refresh triggers an immediate scan.
func (s *RelayScanner) Refresh(ctx context.Context) error {
	if s.ctx == nil {
		return errors.New("relay scanner is not started")
	}

	req := refreshRequest{
		ctx:  ctx,
		done: make(chan error, 1),
	}

	select {
	case s.refreshRequests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return errors.New("relay scanner is stopped")
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return errors.New("relay scanner is stopped")
	}
}

// ListRelays returns the current discovered relays ordered by URL.
func (s *RelayScanner) ListRelays() []models.DiscoveredRelay {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DiscoveredRelay, 0, len(s.relays))
	for _, relay := range s.relays {
		out = append(out, relay)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].URL < out[j].URL
	})
	return out
}

func (s *RelayScanner) loop() {
	defer s.wg.Done()

	s.runScan(context.Background())

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runScan(context.Background())
		case req := <-s.refreshRequests:
			req.done <- s.runScan(req.ctx)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *RelayScanner) runScan(requestCtx context.Context) error {
	scanCtx, cancel := context.WithTimeout(s.ctx, s.cfg.ScanTimeout)
	defer cancel()

	go func() {
		select {
		case <-requestCtx.Done():
			cancel()
		case <-scanCtx.Done():
		}
	}()

	entries := make(chan *zeroconf.ServiceEntry, 32)
	collected := make(map[string]models.DiscoveredRelay)
	var collectedMu sync.Mutex
	collectorDone := make(chan struct{})

	go func() {
		defer close(collectorDone)
		for {
			select {
			case <-scanCtx.Done():
				return
			case entry := <-entries:
				relay, ok := parseEntry(entry)
				if !ok {
					continue
				}
				relay.LastSeenTimestamp = time.Now().UnixMilli()
				collectedMu.Lock()
				collected[relay.URL] = relay
				collectedMu.Unlock()
			}
		}
	}()

	browseErr := s.browse(scanCtx, s.cfg.Service, s.cfg.Domain, entries)
	if browseErr != nil && !errors.Is(browseErr, context.DeadlineExceeded) && !errors.Is(browseErr, context.Canceled) {
		s.cfg.Logger.Debug().Err(browseErr).Msg("mdns browse failed")
		return browseErr
	}

	<-scanCtx.Done()
	<-collectorDone
	collectedMu.Lock()
	next := collected
	collectedMu.Unlock()

	s.applySnapshot(next)
	return nil
}

func (s *RelayScanner) applySnapshot(next map[string]models.DiscoveredRelay) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.relays
	s.relays = next

	for url, relay := range next {
		old, exists := previous[url]
		if !exists || old.Name != relay.Name || old.InstanceName != relay.InstanceName {
			s.cfg.Logger.Info().Str("relay", url).Str("name", relay.Name).Msg("relay discovered")
			s.emitEvent(Event{Type: EventRelayUpserted, Relay: relay})
		}
	}

	for url, relay := range previous {
		if _, exists := next[url]; !exists {
			s.cfg.Logger.Info().Str("relay", url).Msg("relay gone")
			s.emitEvent(Event{Type: EventRelayRemoved, Relay: relay})
		}
	}
}

func (s *RelayScanner) emitEvent(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

// RelaySet is the part of a relay fan-out that discovery feeds.
type RelaySet interface {
	AddRelays(urls ...string) int
	RemoveRelays(urls ...string) int
}

// Follow applies scanner events to set until ctx is done or the scanner stops.
// Relays listed in pinned are never removed. URLs are compared after normalization.
func Follow(ctx context.Context, events <-chan Event, set RelaySet, pinned []string) {
	keep := make(map[string]struct{}, len(pinned))
	for _, url := range pinned {
		keep[nostr.NormalizeURL(url)] = struct{}{}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Type {
			case EventRelayUpserted:
				set.AddRelays(event.Relay.URL)
			case EventRelayRemoved:
				if _, pinned := keep[nostr.NormalizeURL(event.Relay.URL)]; !pinned {
					set.RemoveRelays(event.Relay.URL)
				}
			}
		}
	}
}
