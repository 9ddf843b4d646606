package config

import (
	"os"
	"path/filepath"
	"testing"

	"bitnostr/relay"
)

func TestLoadOrCreateCreatesAndReloadsConfig(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv(DataDirEnv, tempDir)

	firstCfg, firstPath, err := LoadOrCreate("")
	if err != nil {
		t.Fatalf("first LoadOrCreate failed: %v", err)
	}
	if firstCfg.InstanceID == "" {
		t.Fatalf("expected non-empty instance ID")
	}
	if len(firstCfg.Relays) != len(relay.DefaultRelays) {
		t.Fatalf("expected default relays, got %d", len(firstCfg.Relays))
	}
	if firstCfg.DMLookback().Hours() != 24 {
		t.Fatalf("expected 24h DM lookback, got %s", firstCfg.DMLookback())
	}
	if firstCfg.ChannelLookback().Hours() != 1 {
		t.Fatalf("expected 1h channel lookback, got %s", firstCfg.ChannelLookback())
	}
	if firstCfg.Bot.MemorySize != DefaultBotMemorySize {
		t.Fatalf("expected bot memory size %d, got %d", DefaultBotMemorySize, firstCfg.Bot.MemorySize)
	}
	if firstCfg.Nickname != "" {
		t.Fatalf("expected no default nickname, got %q", firstCfg.Nickname)
	}

	expectedConfigPath := filepath.Join(tempDir, "config.json")
	if firstPath != expectedConfigPath {
		t.Fatalf("expected config path %q, got %q", expectedConfigPath, firstPath)
	}
	if firstCfg.IdentityKeyPath != filepath.Join(tempDir, "keys", "nostr_secret.pem") {
		t.Fatalf("unexpected identity key path %q", firstCfg.IdentityKeyPath)
	}

	secondCfg, secondPath, err := LoadOrCreate("")
	if err != nil {
		t.Fatalf("second LoadOrCreate failed: %v", err)
	}

	if secondPath != firstPath {
		t.Fatalf("expected config path to be stable, got %q then %q", firstPath, secondPath)
	}
	if secondCfg.InstanceID != firstCfg.InstanceID {
		t.Fatalf("expected stable instance ID, got %q then %q", firstCfg.InstanceID, secondCfg.InstanceID)
	}
	if secondCfg.IdentityKeyPath != firstCfg.IdentityKeyPath {
		t.Fatalf("expected stable key path, got %q then %q", firstCfg.IdentityKeyPath, secondCfg.IdentityKeyPath)
	}
}

func TestLoadOrCreateNormalizesPartialConfig(t *testing.T) {
	tempDir := t.TempDir()

	cfgPath := filepath.Join(tempDir, "config.json")
	if err := EnsureDataDirectories(tempDir); err != nil {
		t.Fatalf("EnsureDataDirectories failed: %v", err)
	}

	partial := &Config{
		InstanceID: "existing-instance",
		Relays:     []string{"wss://relay.damus.io/", "wss://relay.damus.io", "nos.lol"},
		Bot:        BotConfig{Enabled: true, Name: "razzo"},
	}
	if err := Save(cfgPath, partial); err != nil {
		t.Fatalf("Save partial config failed: %v", err)
	}

	cfg, _, err := LoadOrCreate(tempDir)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if cfg.InstanceID != "existing-instance" {
		t.Fatalf("expected instance ID to be retained, got %q", cfg.InstanceID)
	}
	if len(cfg.Relays) != 2 || cfg.Relays[0] != "wss://relay.damus.io" || cfg.Relays[1] != "wss://nos.lol" {
		t.Fatalf("expected normalized relays, got %v", cfg.Relays)
	}
	if !cfg.Bot.Enabled || cfg.Bot.MemorySize != DefaultBotMemorySize {
		t.Fatalf("expected bot settings to be kept and completed, got %+v", cfg.Bot)
	}

	reloaded, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.SeenCacheSize != DefaultSeenCacheSize {
		t.Fatalf("expected normalized config to be written back, got seen cache size %d", reloaded.SeenCacheSize)
	}
}

func TestLoadEnvKeepsExistingVariables(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("AI_KEY=from-file\nBITNOSTR_SECRET_KEY=nsec-from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv(APIKeyEnv, "from-env")
	t.Setenv(SecretKeyEnv, "")
	os.Unsetenv(SecretKeyEnv)

	if err := LoadEnv(tempDir); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}
	if APIKey() != "from-env" {
		t.Fatalf("expected environment to win, got %q", APIKey())
	}
	if SecretKeyOverride() != "nsec-from-file" {
		t.Fatalf("expected .env value to be loaded, got %q", SecretKeyOverride())
	}
}

func TestLoadOrCreateKeepsExplicitNickname(t *testing.T) {
	tempDir := t.TempDir()
	if err := EnsureDataDirectories(tempDir); err != nil {
		t.Fatalf("EnsureDataDirectories failed: %v", err)
	}
	if err := Save(ConfigPath(tempDir), &Config{Nickname: "alice"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cfg, _, err := LoadOrCreate(tempDir)
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if cfg.Nickname != "alice" {
		t.Fatalf("expected nickname alice, got %q", cfg.Nickname)
	}
}
