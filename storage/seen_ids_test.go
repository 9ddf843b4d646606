package storage

import (
	"testing"
)

func TestSeenEventIDsOperations(t *testing.T) {
	store := newTestStore(t)

	oldTimestamp := nowUnixMilli() - 10_000
	newTimestamp := nowUnixMilli()

	fresh, err := store.MarkEventSeen("evt-old", oldTimestamp)
	if err != nil {
		t.Fatalf("MarkEventSeen old failed: %v", err)
	}
	if !fresh {
		t.Fatalf("expected evt-old to be new")
	}
	if _, err := store.MarkEventSeen("evt-new", newTimestamp); err != nil {
		t.Fatalf("MarkEventSeen new failed: %v", err)
	}

	fresh, err = store.MarkEventSeen("evt-old", newTimestamp)
	if err != nil {
		t.Fatalf("MarkEventSeen repeat failed: %v", err)
	}
	if fresh {
		t.Fatalf("expected repeated evt-old to be reported as seen")
	}

	seen, err := store.HasSeenEvent("missing")
	if err != nil {
		t.Fatalf("HasSeenEvent missing failed: %v", err)
	}
	if seen {
		t.Fatalf("expected missing event ID to be unseen")
	}

	pruned, err := store.PruneSeenEvents(nowUnixMilli() - 5_000)
	if err != nil {
		t.Fatalf("PruneSeenEvents failed: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned seen event ID, got %d", pruned)
	}

	seenOld, err := store.HasSeenEvent("evt-old")
	if err != nil {
		t.Fatalf("HasSeenEvent evt-old after prune failed: %v", err)
	}
	seenNew, err := store.HasSeenEvent("evt-new")
	if err != nil {
		t.Fatalf("HasSeenEvent evt-new after prune failed: %v", err)
	}
	if seenOld {
		t.Fatalf("expected evt-old to be pruned")
	}
	if !seenNew {
		t.Fatalf("expected evt-new to remain after prune")
	}

	if _, err := store.MarkEventSeen("", 0); err == nil {
		t.Fatalf("expected empty event ID to fail")
	}
}
