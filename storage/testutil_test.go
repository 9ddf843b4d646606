package storage

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open()
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close test store: %v", err)
		}
	})

	return store
}

func mustAppend(t *testing.T, store *Store, topic, role, content string, limit int) {
	t.Helper()

	if err := store.AppendHistory(HistoryEntry{Topic: topic, Role: role, Content: content}, limit); err != nil {
		t.Fatalf("append history %q to %q: %v", content, topic, err)
	}
}
