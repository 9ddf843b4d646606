package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates a requested row does not exist.
	ErrNotFound = errors.New("storage: record not found")
)

const (
	// RoleSystem marks a system prompt entry.
	RoleSystem = "system"
	// RoleUser marks an entry written by a channel participant.
	RoleUser = "user"
	// RoleAssistant marks an entry written by the bot.
	RoleAssistant = "assistant"
)

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// SecurityKindUnverifiedSeal marks a direct message whose seal signature failed.
const SecurityKindUnverifiedSeal = "seal_signature_failed"

// HistoryEntry is one remembered conversation line under a topic.
type HistoryEntry struct {
	ID        int64  `json:"-"`
	Topic     string `json:"-"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"-"`
}

// SecurityEvent is a protocol anomaly noticed while handling relay traffic.
type SecurityEvent struct {
	ID        int64
	Kind      string
	PubKey    string
	EventID   string
	Severity  string
	Details   map[string]string
	Timestamp int64
}

// SecurityEventFilter narrows SecurityEvents. Zero fields match everything.
type SecurityEventFilter struct {
	Kind   string
	PubKey string
	Since  int64
	Limit  int
}

type scanner interface {
	Scan(dest ...any) error
}

func validateRole(role string) error {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("invalid history role %q", role)
	}
}

func validateSeverity(severity string) error {
	switch severity {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return nil
	default:
		return fmt.Errorf("invalid severity %q", severity)
	}
}

func nowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
