package storage

import (
	"errors"
	"fmt"
)

// MarkEventSeen records an event ID and reports whether it was new.
func (s *Store) MarkEventSeen(eventID string, receivedAt int64) (bool, error) {
	if eventID == "" {
		return false, errors.New("event_id is required")
	}
	if receivedAt == 0 {
		receivedAt = nowUnixMilli()
	}

	res, err := s.db.Exec(
		`INSERT INTO seen_event_ids (event_id, received_at)
		VALUES (?, ?)
		ON CONFLICT(event_id) DO NOTHING`,
		eventID,
		receivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert seen event ID %q: %w", eventID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read rows affected for seen event ID: %w", err)
	}
	return rowsAffected == 1, nil
}

// HasSeenEvent returns true if an event ID has already been recorded.
func (s *Store) HasSeenEvent(eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event_id is required")
	}

	var exists int
	if err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM seen_event_ids WHERE event_id = ?)`,
		eventID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check seen event ID %q: %w", eventID, err)
	}

	return exists == 1, nil
}

// PruneSeenEvents removes seen_event_ids rows older than cutoff timestamp.
func (s *Store) PruneSeenEvents(cutoffTimestamp int64) (int64, error) {
	if cutoffTimestamp <= 0 {
		return 0, errors.New("cutoff timestamp must be > 0")
	}

	res, err := s.db.Exec(`DELETE FROM seen_event_ids WHERE received_at < ?`, cutoffTimestamp)
	if err != nil {
		return 0, fmt.Errorf("prune seen event IDs: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for seen event prune: %w", err)
	}

	return rowsAffected, nil
}
