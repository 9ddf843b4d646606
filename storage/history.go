package storage

import (
	"errors"
	"fmt"
	"strings"
)

// AppendHistory stores entry under its topic and trims the topic to the newest limit entries.
// A limit <= 0 keeps everything.
func (s *Store) AppendHistory(entry HistoryEntry, limit int) error {
	if strings.TrimSpace(entry.Topic) == "" {
		return errors.New("topic is required")
	}
	if entry.Role == "" {
		entry.Role = RoleUser
	}
	if err := validateRole(entry.Role); err != nil {
		return err
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = nowUnixMilli()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(
		`INSERT INTO conversation_history (topic, role, content, timestamp) VALUES (?, ?, ?, ?)`,
		entry.Topic,
		entry.Role,
		entry.Content,
		entry.Timestamp,
	); err != nil {
		return fmt.Errorf("insert history for %q: %w", entry.Topic, err)
	}

	if limit > 0 {
		if _, err := tx.Exec(
			`DELETE FROM conversation_history
			WHERE topic = ? AND id NOT IN (
				SELECT id FROM conversation_history WHERE topic = ? ORDER BY id DESC LIMIT ?
			)`,
			entry.Topic,
			entry.Topic,
			limit,
		); err != nil {
			return fmt.Errorf("trim history for %q: %w", entry.Topic, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	return nil
}

// History returns the entries of one topic, oldest first.
func (s *Store) History(topic string) ([]HistoryEntry, error) {
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	rows, err := s.db.Query(
		`SELECT id, topic, role, content, timestamp
		FROM conversation_history
		WHERE topic = ?
		ORDER BY id ASC`,
		topic,
	)
	if err != nil {
		return nil, fmt.Errorf("get history for %q: %w", topic, err)
	}
	defer rows.Close()

	return scanHistoryRows(rows)
}

// Snapshot returns every topic's entries, oldest first per topic.
func (s *Store) Snapshot() (map[string][]HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, topic, role, content, timestamp
		FROM conversation_history
		ORDER BY topic ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot history: %w", err)
	}
	defer rows.Close()

	entries, err := scanHistoryRows(rows)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[string][]HistoryEntry)
	for _, entry := range entries {
		snapshot[entry.Topic] = append(snapshot[entry.Topic], entry)
	}
	return snapshot, nil
}

// ClearHistory forgets one topic and returns how many entries were removed.
func (s *Store) ClearHistory(topic string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM conversation_history WHERE topic = ?`, topic)
	if err != nil {
		return 0, fmt.Errorf("clear history for %q: %w", topic, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for history clear: %w", err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

type historyRows interface {
	scanner
	Next() bool
	Err() error
}

func scanHistoryRows(rows historyRows) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.Topic, &entry.Role, &entry.Content, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
