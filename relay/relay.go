// Package relay fans events out to a set of independent Nostr relays and
// merges their subscription streams into one deduplicated delivery stream.
package relay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

var (
	// ErrNoTransport indicates a Fanout built without a Transport.
	ErrNoTransport = errors.New("relay: transport is required")
	// ErrNoResult indicates a relay for which the transport never reported an outcome.
	ErrNoResult = errors.New("relay: no publish result")
)

// Result is the settled outcome of publishing one event to one relay.
type Result struct {
	URL string
	Err error
}

// Delivery is one event received from one relay.
type Delivery struct {
	Event    *nostr.Event
	RelayURL string
}

// Transport is the relay wire layer. PublishMany must emit exactly one Result per URL and
// close the channel once every attempt has settled. SubscribeMany must stop sending and
// close its channel when ctx is done.
type Transport interface {
	PublishMany(ctx context.Context, urls []string, event nostr.Event) <-chan Result
	SubscribeMany(ctx context.Context, urls []string, filter nostr.Filter) <-chan Delivery
}

// Report aggregates per-relay publish outcomes, sorted by relay URL.
type Report struct {
	EventID string
	Results []Result
}

// Accepted returns the number of relays that accepted the event.
func (r Report) Accepted() int {
	count := 0
	for _, result := range r.Results {
		if result.Err == nil {
			count++
		}
	}
	return count
}

// Failed returns the results of relays that rejected the event or could not be reached.
func (r Report) Failed() []Result {
	failed := make([]Result, 0)
	for _, result := range r.Results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}
	return failed
}

// String summarizes the report for log lines.
func (r Report) String() string {
	return fmt.Sprintf("%d/%d relays accepted", r.Accepted(), len(r.Results))
}

func newReport(eventID string, urls []string, results map[string]error) Report {
	report := Report{EventID: eventID, Results: make([]Result, 0, len(urls))}
	for _, url := range urls {
		err, ok := results[url]
		if !ok {
			err = ErrNoResult
		}
		report.Results = append(report.Results, Result{URL: url, Err: err})
	}
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].URL < report.Results[j].URL
	})
	return report
}

// NormalizeRelays normalizes relay URLs, drops anything that is not ws:// or wss://
// and removes duplicates while keeping first-seen order.
func NormalizeRelays(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		url := nostr.NormalizeURL(raw)
		if !strings.HasPrefix(url, "ws://") && !strings.HasPrefix(url, "wss://") {
			continue
		}
		if _, exists := seen[url]; exists {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}
	return out
}
