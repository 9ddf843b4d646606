package relay_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"bitnostr/relay"
	"bitnostr/relay/relaytest"
)

var fiveRelays = []string{
	"wss://relay-a.example",
	"wss://relay-b.example",
	"wss://relay-c.example",
	"wss://relay-d.example",
	"wss://relay-e.example",
}

func newFanout(t *testing.T, transport relay.Transport, relays ...string) *relay.Fanout {
	t.Helper()
	if len(relays) == 0 {
		relays = fiveRelays
	}
	fanout, err := relay.NewFanout(relay.FanoutOptions{Relays: relays, Transport: transport})
	require.NoError(t, err)
	return fanout
}

func testEvent(id string) *nostr.Event {
	return &nostr.Event{ID: id, Kind: 20000, CreatedAt: nostr.Now(), Content: id}
}

func TestNewFanoutRequiresTransport(t *testing.T) {
	_, err := relay.NewFanout(relay.FanoutOptions{Relays: fiveRelays})
	require.ErrorIs(t, err, relay.ErrNoTransport)
}

func TestPublishIsBestEffort(t *testing.T) {
	transport := relaytest.NewTransport()
	transport.Delay = 20 * time.Millisecond
	transport.Reject["wss://relay-b.example"] = errors.New("blocked: spam")
	transport.Reject["wss://relay-d.example"] = errors.New("connection refused")
	fanout := newFanout(t, transport)

	report := fanout.Publish(context.Background(), nostr.Event{ID: "e1", Kind: 1059})

	require.Equal(t, 5, transport.Settled(), "publish returned before every relay settled")
	require.Equal(t, "e1", report.EventID)
	require.Equal(t, 3, report.Accepted())
	require.Len(t, report.Failed(), 2)
	require.Equal(t, "wss://relay-b.example", report.Failed()[0].URL)
	require.Equal(t, "wss://relay-d.example", report.Failed()[1].URL)
	require.Equal(t, "3/5 relays accepted", report.String())
	require.Len(t, transport.Published(), 1)
}

func TestPublishReportIsSortedByURL(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport, "wss://zeta.example", "wss://alpha.example", "wss://mid.example")

	report := fanout.Publish(context.Background(), nostr.Event{ID: "e2"})

	urls := make([]string, 0, len(report.Results))
	for _, result := range report.Results {
		urls = append(urls, result.URL)
	}
	require.Equal(t, []string{"wss://alpha.example", "wss://mid.example", "wss://zeta.example"}, urls)
}

type partialTransport struct {
	relaytest.Transport
	answer string
}

func (p *partialTransport) PublishMany(ctx context.Context, urls []string, event nostr.Event) <-chan relay.Result {
	out := make(chan relay.Result, 1)
	out <- relay.Result{URL: p.answer}
	close(out)
	return out
}

func TestPublishMarksSilentRelays(t *testing.T) {
	transport := &partialTransport{answer: "wss://relay-a.example"}
	fanout := newFanout(t, transport, "wss://relay-a.example", "wss://relay-b.example")

	report := fanout.Publish(context.Background(), nostr.Event{ID: "e3"})

	require.Equal(t, 1, report.Accepted())
	require.Len(t, report.Failed(), 1)
	require.ErrorIs(t, report.Failed()[0].Err, relay.ErrNoResult)
}

func TestPublishIgnoresCallerCancellation(t *testing.T) {
	transport := relaytest.NewTransport()
	transport.Delay = 10 * time.Millisecond
	fanout := newFanout(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := fanout.Publish(ctx, nostr.Event{ID: "e4"})

	require.Equal(t, 5, report.Accepted())
}

func TestSubscribeDropsDuplicateDeliveries(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport)

	var mu sync.Mutex
	var got []string
	sub := fanout.Subscribe(context.Background(), nostr.Filter{Kinds: []int{20000}}, func(event *nostr.Event) {
		mu.Lock()
		got = append(got, event.ID)
		mu.Unlock()
	})
	defer sub.Close()

	first := testEvent("aa")
	for _, url := range fiveRelays {
		require.Equal(t, 1, transport.Emit(first, url))
	}
	require.Equal(t, 1, transport.Emit(testEvent("bb"), fiveRelays[0]))
	require.Equal(t, 1, transport.Emit(first, fiveRelays[2]))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"aa", "bb"}, got)
	mu.Unlock()
	require.Equal(t, fiveRelays, transport.Relays())
	require.Equal(t, []int{20000}, transport.Filters()[0].Kinds)
}

func TestSubscribeNeverRunsHandlersConcurrently(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport)

	var active, maxActive, calls atomic.Int32
	sub := fanout.Subscribe(context.Background(), nostr.Filter{}, func(*nostr.Event) {
		now := active.Add(1)
		if now > maxActive.Load() {
			maxActive.Store(now)
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		calls.Add(1)
	})
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transport.Emit(testEvent(fmt.Sprintf("id-%02d", i)), fiveRelays[i%len(fiveRelays)])
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return calls.Load() == 20 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), maxActive.Load())
}

func TestCloseIsIdempotentAndStopsDeliveries(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport)

	var calls atomic.Int32
	sub := fanout.Subscribe(context.Background(), nostr.Filter{}, func(*nostr.Event) { calls.Add(1) })
	require.NotEmpty(t, sub.ID)

	require.Equal(t, 1, transport.Emit(testEvent("before"), fiveRelays[0]))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	sub.Close()
	sub.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("dispatch loop did not exit after Close")
	}

	require.Zero(t, transport.Emit(testEvent("after"), fiveRelays[0]))
	require.Equal(t, int32(1), calls.Load())
}

func TestCloseFromInsideHandler(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport)

	var calls atomic.Int32
	var sub *relay.Subscription
	ready := make(chan struct{})
	sub = fanout.Subscribe(context.Background(), nostr.Filter{}, func(*nostr.Event) {
		<-ready
		calls.Add(1)
		sub.Close()
	})
	close(ready)

	transport.Emit(testEvent("one"), fiveRelays[0])

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Close from handler deadlocked")
	}
	transport.Emit(testEvent("two"), fiveRelays[1])
	require.Equal(t, int32(1), calls.Load())
}

func TestSubscriptionEndsWithParentContext(t *testing.T) {
	transport := relaytest.NewTransport()
	fanout := newFanout(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	sub := fanout.Subscribe(ctx, nostr.Filter{}, func(*nostr.Event) {})
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription outlived its context")
	}
	sub.Close()
}

func TestAddAndRemoveRelays(t *testing.T) {
	fanout := newFanout(t, relaytest.NewTransport(), "wss://relay-a.example")

	require.Equal(t, 2, fanout.AddRelays("wss://relay-a.example", "wss://relay-b.example", "relay-c.example"))
	require.Equal(t, []string{"wss://relay-a.example", "wss://relay-b.example", "wss://relay-c.example"}, fanout.Relays())

	require.Equal(t, 1, fanout.RemoveRelays("wss://relay-b.example/", "wss://unknown.example"))
	require.Equal(t, []string{"wss://relay-a.example", "wss://relay-c.example"}, fanout.Relays())
}

func TestNormalizeRelaysDeduplicates(t *testing.T) {
	got := relay.NormalizeRelays([]string{
		"wss://relay.damus.io",
		" wss://relay.damus.io/ ",
		"",
		"wss://nos.lol",
		"ws://192.168.1.20:7777",
	})
	require.Equal(t, []string{"wss://relay.damus.io", "wss://nos.lol", "ws://192.168.1.20:7777"}, got)
}

func TestDefaultRelaysAreUnique(t *testing.T) {
	require.NotEmpty(t, relay.DefaultRelays)
	require.Equal(t, relay.NormalizeRelays(relay.DefaultRelays), relay.DefaultRelays)
}
