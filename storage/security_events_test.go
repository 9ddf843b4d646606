package storage

import (
	"testing"
	"time"
)

func TestRecordAndFilterSecurityEvents(t *testing.T) {
	store := newTestStore(t)

	now := nowUnixMilli()
	alice := "c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00c0ffee00"
	bob := "beef0000beef0000beef0000beef0000beef0000beef0000beef0000beef0000"

	events := []SecurityEvent{
		{Kind: "relay_rejected", PubKey: alice, Severity: SeverityInfo, Timestamp: now - 2_000, Details: map[string]string{"relay": "wss://a.example"}},
		{Kind: SecurityKindUnverifiedSeal, PubKey: alice, EventID: "gift-1", Severity: SeverityWarning, Timestamp: now - 1_000},
		{Kind: SecurityKindUnverifiedSeal, PubKey: bob, EventID: "gift-2", Severity: SeverityCritical, Timestamp: now},
	}
	for _, event := range events {
		if err := store.RecordSecurityEvent(event); err != nil {
			t.Fatalf("RecordSecurityEvent %s failed: %v", event.Kind, err)
		}
	}

	all, err := store.SecurityEvents(SecurityEventFilter{})
	if err != nil {
		t.Fatalf("SecurityEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].EventID != "gift-2" || all[2].Kind != "relay_rejected" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[2].Details["relay"] != "wss://a.example" {
		t.Fatalf("unexpected details: %v", all[2].Details)
	}

	seals, err := store.SecurityEvents(SecurityEventFilter{Kind: SecurityKindUnverifiedSeal, PubKey: alice})
	if err != nil {
		t.Fatalf("SecurityEvents filtered failed: %v", err)
	}
	if len(seals) != 1 || seals[0].EventID != "gift-1" {
		t.Fatalf("unexpected filtered events: %+v", seals)
	}

	recent, err := store.SecurityEvents(SecurityEventFilter{Since: now - 500})
	if err != nil {
		t.Fatalf("SecurityEvents since failed: %v", err)
	}
	if len(recent) != 1 || recent[0].PubKey != bob {
		t.Fatalf("unexpected recent events: %+v", recent)
	}
}

func TestRecordSecurityEventValidates(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordSecurityEvent(SecurityEvent{Kind: "  "}); err == nil {
		t.Fatalf("expected error for empty kind")
	}
	if err := store.RecordSecurityEvent(SecurityEvent{Kind: "x", Severity: "loud"}); err == nil {
		t.Fatalf("expected error for invalid severity")
	}
}

func TestSecurityEventRetentionPrunesOldRows(t *testing.T) {
	store := newTestStore(t)
	store.SetSecurityEventRetention(time.Second)

	now := nowUnixMilli()
	if err := store.RecordSecurityEvent(SecurityEvent{Kind: "old_event", Timestamp: now - 10_000}); err != nil {
		t.Fatalf("RecordSecurityEvent old_event failed: %v", err)
	}
	if err := store.RecordSecurityEvent(SecurityEvent{Kind: "new_event", Timestamp: now}); err != nil {
		t.Fatalf("RecordSecurityEvent new_event failed: %v", err)
	}

	events, err := store.SecurityEvents(SecurityEventFilter{})
	if err != nil {
		t.Fatalf("SecurityEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Kind != "new_event" {
		t.Fatalf("expected only new_event after prune, got %+v", events)
	}
	if events[0].Severity != SeverityInfo {
		t.Fatalf("expected default info severity, got %q", events[0].Severity)
	}
}

func TestLogUnverifiedSeal(t *testing.T) {
	store := newTestStore(t)

	if err := store.LogUnverifiedSeal("gift-1", "abcdef"); err != nil {
		t.Fatalf("LogUnverifiedSeal failed: %v", err)
	}

	events, err := store.SecurityEvents(SecurityEventFilter{Kind: SecurityKindUnverifiedSeal})
	if err != nil {
		t.Fatalf("SecurityEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 security event, got %d", len(events))
	}
	if events[0].PubKey != "abcdef" || events[0].EventID != "gift-1" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Severity != SeverityWarning {
		t.Fatalf("expected warning severity, got %q", events[0].Severity)
	}
}
