package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxSecurityEvents = 500

// SetSecurityEventRetention changes how long recorded security events are kept.
func (s *Store) SetSecurityEventRetention(retention time.Duration) {
	if retention <= 0 {
		retention = DefaultSecurityEventRetention
	}
	s.securityEventRetention = retention
}

// RecordSecurityEvent stores event and prunes rows older than the retention window.
func (s *Store) RecordSecurityEvent(event SecurityEvent) error {
	event.Kind = strings.TrimSpace(event.Kind)
	if event.Kind == "" {
		return errors.New("security event kind is required")
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}
	if err := validateSeverity(event.Severity); err != nil {
		return err
	}
	if event.Timestamp == 0 {
		event.Timestamp = nowUnixMilli()
	}
	details := []byte("{}")
	if len(event.Details) > 0 {
		encoded, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("encode security event details: %w", err)
		}
		details = encoded
	}

	_, err := s.db.Exec(
		`INSERT INTO security_events (kind, pubkey, event_id, severity, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.Kind,
		strings.TrimSpace(event.PubKey),
		event.EventID,
		event.Severity,
		string(details),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert security event %q: %w", event.Kind, err)
	}

	cutoff := time.Now().Add(-s.securityEventRetention).UnixMilli()
	if _, err := s.PruneSecurityEvents(cutoff); err != nil {
		return err
	}
	return nil
}

// LogUnverifiedSeal records a direct message whose seal signature did not verify.
func (s *Store) LogUnverifiedSeal(giftID, senderPubKey string) error {
	return s.RecordSecurityEvent(SecurityEvent{
		Kind:     SecurityKindUnverifiedSeal,
		PubKey:   senderPubKey,
		EventID:  giftID,
		Severity: SeverityWarning,
	})
}

// SecurityEvents returns matching events, newest first.
func (s *Store) SecurityEvents(filter SecurityEventFilter) ([]SecurityEvent, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxSecurityEvents {
		limit = maxSecurityEvents
	}

	rows, err := s.db.Query(
		`SELECT id, kind, pubkey, event_id, severity, details, timestamp
		FROM security_events
		WHERE (? = '' OR kind = ?)
		  AND (? = '' OR pubkey = ?)
		  AND timestamp >= ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`,
		filter.Kind, filter.Kind,
		filter.PubKey, filter.PubKey,
		filter.Since,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query security events: %w", err)
	}
	defer rows.Close()

	var events []SecurityEvent
	for rows.Next() {
		event, err := scanSecurityEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security events: %w", err)
	}
	return events, nil
}

// PruneSecurityEvents deletes events recorded before cutoff (unix millis).
func (s *Store) PruneSecurityEvents(cutoff int64) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM security_events WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune security events: %w", err)
	}
	return res.RowsAffected()
}

func scanSecurityEvent(row scanner) (SecurityEvent, error) {
	var (
		event   SecurityEvent
		details string
	)
	if err := row.Scan(
		&event.ID,
		&event.Kind,
		&event.PubKey,
		&event.EventID,
		&event.Severity,
		&details,
		&event.Timestamp,
	); err != nil {
		return SecurityEvent{}, err
	}
	if details != "" && details != "{}" {
		if err := json.Unmarshal([]byte(details), &event.Details); err != nil {
			return SecurityEvent{}, fmt.Errorf("decode details: %w", err)
		}
	}
	return event, nil
}
