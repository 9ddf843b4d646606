package discovery

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"

	"bitnostr/models"
)

func TestRelayScannerManualRefresh(t *testing.T) {
	var browseCalls int32
	cfg := Config{
		RefreshInterval: time.Hour,
		ScanTimeout:     35 * time.Millisecond,
		browseFn: func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
			if service != DefaultService || domain != DefaultDomain {
				t.Errorf("unexpected browse target %q %q", service, domain)
			}
			call := atomic.AddInt32(&browseCalls, 1)
			entries <- testServiceEntry("alpha", 7777, "10.0.0.2")
			if call >= 2 {
				entries <- testServiceEntry("beta", 7778, "10.0.0.3")
			}
			<-ctx.Done()
			return nil
		},
	}

	scanner, err := NewRelayScanner(cfg)
	if err != nil {
		t.Fatalf("NewRelayScanner failed: %v", err)
	}
	if err := scanner.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer scanner.Stop()

	waitForCondition(t, time.Second, func() bool {
		relays := scanner.ListRelays()
		return len(relays) == 1 && relays[0].URL == "ws://10.0.0.2:7777"
	})

	if err := scanner.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	waitForCondition(t, time.Second, func() bool {
		return len(scanner.ListRelays()) == 2
	})
}

func TestRelayScannerEmitsRemoval(t *testing.T) {
	var browseCalls int32
	cfg := Config{
		RefreshInterval: 40 * time.Millisecond,
		ScanTimeout:     25 * time.Millisecond,
		browseFn: func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
			if atomic.AddInt32(&browseCalls, 1) == 1 {
				entries <- testServiceEntry("alpha", 7777, "10.0.0.2")
			}
			entries <- testServiceEntry("beta", 7778, "10.0.0.3")
			<-ctx.Done()
			return ctx.Err()
		},
	}

	scanner, err := NewRelayScanner(cfg)
	if err != nil {
		t.Fatalf("NewRelayScanner failed: %v", err)
	}
	if err := scanner.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer scanner.Stop()

	if !waitForEvent(scanner.Events(), EventRelayRemoved, "ws://10.0.0.2:7777", 2*time.Second) {
		t.Fatalf("expected removal event for alpha")
	}
	waitForCondition(t, time.Second, func() bool {
		relays := scanner.ListRelays()
		return len(relays) == 1 && relays[0].URL == "ws://10.0.0.3:7778"
	})
}

func TestRefreshBeforeStartFails(t *testing.T) {
	scanner, err := NewRelayScanner(Config{
		browseFn: func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewRelayScanner failed: %v", err)
	}
	if err := scanner.Refresh(context.Background()); err == nil {
		t.Fatalf("expected Refresh on an unstarted scanner to fail")
	}
}

type recordingSet struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (r *recordingSet) AddRelays(urls ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, urls...)
	return len(urls)
}

func (r *recordingSet) RemoveRelays(urls ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, urls...)
	return len(urls)
}

func TestFollowAppliesEventsAndKeepsPinned(t *testing.T) {
	events := make(chan Event, 4)
	events <- Event{Type: EventRelayUpserted, Relay: relayAt("ws://10.0.0.2:7777")}
	events <- Event{Type: EventRelayRemoved, Relay: relayAt("ws://10.0.0.2:7777")}
	events <- Event{Type: EventRelayRemoved, Relay: relayAt("ws://10.0.0.9:7777")}
	close(events)

	set := &recordingSet{}
	Follow(context.Background(), events, set, []string{"ws://10.0.0.9:7777"})

	if len(set.added) != 1 || set.added[0] != "ws://10.0.0.2:7777" {
		t.Fatalf("unexpected added relays: %v", set.added)
	}
	if len(set.removed) != 1 || set.removed[0] != "ws://10.0.0.2:7777" {
		t.Fatalf("unexpected removed relays: %v", set.removed)
	}
}

func TestFollowMatchesPinnedAfterNormalization(t *testing.T) {
	events := make(chan Event, 2)
	events <- Event{Type: EventRelayRemoved, Relay: relayAt("ws://10.0.0.9:7777/")}
	events <- Event{Type: EventRelayRemoved, Relay: relayAt("ws://Relay.LAN:7777")}
	close(events)

	set := &recordingSet{}
	Follow(context.Background(), events, set, []string{"ws://10.0.0.9:7777", "ws://relay.lan:7777/"})

	if len(set.removed) != 0 {
		t.Fatalf("pinned relays were removed: %v", set.removed)
	}
}

func testServiceEntry(instance string, port int, ip string) *zeroconf.ServiceEntry {
	return &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instance,
			Service:  DefaultService,
			Domain:   DefaultDomain,
		},
		HostName: instance + ".local.",
		Port:     port,
		Text:     []string{"name=" + instance},
		AddrIPv4: []net.IP{net.ParseIP(ip)},
	}
}

func waitForCondition(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout %s", timeout)
}

func waitForEvent(events <-chan Event, eventType EventType, url string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			if event.Type == eventType && event.Relay.URL == url {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func relayAt(url string) models.DiscoveredRelay {
	return models.DiscoveredRelay{URL: url}
}
