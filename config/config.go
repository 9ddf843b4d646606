package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"bitnostr/relay"
)

const (
	// AppDirectoryName is the per-user application data directory name.
	AppDirectoryName = "bitnostr"
	// DataDirEnv overrides the data directory.
	DataDirEnv = "BITNOSTR_DATA_DIR"
	// SecretKeyEnv carries an optional hex or nsec identity override.
	SecretKeyEnv = "BITNOSTR_SECRET_KEY"
	// APIKeyEnv carries the LLM API key.
	APIKeyEnv = "AI_KEY"

	DefaultDMLookbackSeconds      = 24 * 60 * 60
	DefaultChannelLookbackSeconds = 60 * 60
	DefaultSeenCacheSize          = 4096
	DefaultPublishTimeoutSeconds  = 15
	DefaultBotMemorySize          = 25

	// configFileName is the persisted configuration file.
	configFileName = "config.json"
	envFileName    = ".env"
)

// Config contains persistent client settings.
type Config struct {
	InstanceID             string    `json:"instance_id"`
	IdentityKeyPath        string    `json:"identity_key_path"`
	Nickname               string    `json:"nickname"`
	Relays                 []string  `json:"relays"`
	DMLookbackSeconds      int       `json:"dm_lookback_seconds"`
	ChannelLookbackSeconds int       `json:"channel_lookback_seconds"`
	SeenCacheSize          int       `json:"seen_cache_size"`
	PublishTimeoutSeconds  int       `json:"publish_timeout_seconds"`
	RequireVerifiedSeal    bool      `json:"require_verified_seal"`
	MDNSDiscovery          bool      `json:"mdns_discovery"`
	Bot                    BotConfig `json:"bot"`
}

// BotConfig controls the optional channel chatbot.
type BotConfig struct {
	Enabled    bool     `json:"enabled"`
	Name       string   `json:"name"`
	Nickname   string   `json:"nickname"`
	Model      string   `json:"model"`
	BaseURL    string   `json:"base_url"`
	MemorySize int      `json:"memory_size"`
	PasteURL   string   `json:"paste_url"`
	Geohashes  []string `json:"geohashes"`
}

// DMLookback returns the direct message subscription lookback window.
func (c *Config) DMLookback() time.Duration {
	return time.Duration(c.DMLookbackSeconds) * time.Second
}

// ChannelLookback returns the channel subscription lookback window.
func (c *Config) ChannelLookback() time.Duration {
	return time.Duration(c.ChannelLookbackSeconds) * time.Second
}

// PublishTimeout bounds one publish fan-out.
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutSeconds) * time.Second
}

// ResolveDataDir returns the OS-aware app data directory.
//
// If BITNOSTR_DATA_DIR is set, its value is used as an explicit override.
func ResolveDataDir() (string, error) {
	if override := os.Getenv(DataDirEnv); override != "" {
		return override, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(base, AppDirectoryName), nil
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppDirectoryName), nil
	default:
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		return filepath.Join(base, AppDirectoryName), nil
	}
}

// ConfigPath returns the full path to config.json for a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, configFileName)
}

// EnsureDataDirectories creates the app data directory layout if needed.
func EnsureDataDirectories(dataDir string) error {
	dirs := []string{
		dataDir,
		filepath.Join(dataDir, "keys"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	return nil
}

// LoadEnv loads .env from the working directory and then from dataDir.
// Variables already set in the environment win, and missing files are ignored.
func LoadEnv(dataDir string) error {
	for _, path := range []string{envFileName, filepath.Join(dataDir, envFileName)} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// APIKey returns the LLM API key from the environment.
func APIKey() string {
	return os.Getenv(APIKeyEnv)
}

// SecretKeyOverride returns the identity override from the environment, if any.
func SecretKeyOverride() string {
	return os.Getenv(SecretKeyEnv)
}

// Load reads and unmarshals config.json from disk.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// Save marshals and writes config.json to disk.
func Save(path string, cfg *Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	raw = append(raw, '\n')
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// LoadOrCreate ensures directories and config exist under dataDir, then returns both.
// An empty dataDir selects ResolveDataDir.
func LoadOrCreate(dataDir string) (*Config, string, error) {
	if dataDir == "" {
		resolved, err := ResolveDataDir()
		if err != nil {
			return nil, "", err
		}
		dataDir = resolved
	}
	if err := EnsureDataDirectories(dataDir); err != nil {
		return nil, "", err
	}

	cfgPath := ConfigPath(dataDir)
	cfg, err := Load(cfgPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}

		cfg = &Config{}
		normalizeDefaults(cfg, dataDir)
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}

		return cfg, cfgPath, nil
	}

	if normalizeDefaults(cfg, dataDir) {
		if err := Save(cfgPath, cfg); err != nil {
			return nil, "", err
		}
	}

	return cfg, cfgPath, nil
}

func normalizeDefaults(cfg *Config, dataDir string) bool {
	updated := false

	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
		updated = true
	}

	if cfg.IdentityKeyPath == "" {
		cfg.IdentityKeyPath = filepath.Join(dataDir, "keys", "nostr_secret.pem")
		updated = true
	}

	relays := relay.NormalizeRelays(cfg.Relays)
	if len(relays) == 0 {
		relays = append([]string(nil), relay.DefaultRelays...)
	}
	if !equalStrings(relays, cfg.Relays) {
		cfg.Relays = relays
		updated = true
	}

	if cfg.DMLookbackSeconds <= 0 {
		cfg.DMLookbackSeconds = DefaultDMLookbackSeconds
		updated = true
	}
	if cfg.ChannelLookbackSeconds <= 0 {
		cfg.ChannelLookbackSeconds = DefaultChannelLookbackSeconds
		updated = true
	}
	if cfg.SeenCacheSize <= 0 {
		cfg.SeenCacheSize = DefaultSeenCacheSize
		updated = true
	}
	if cfg.PublishTimeoutSeconds <= 0 {
		cfg.PublishTimeoutSeconds = DefaultPublishTimeoutSeconds
		updated = true
	}

	if cfg.Bot.MemorySize <= 0 {
		cfg.Bot.MemorySize = DefaultBotMemorySize
		updated = true
	}

	return updated
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
