package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./snx.db" {
			t.Errorf("expected database path ./snx.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "https://studio-api.prod.suno.com/api" {
			t.Errorf("unexpected base url %s", config.API.BaseURL)
		}

		if config.Retry.Retries != 3 || config.Retry.BackoffMS != 500 {
			t.Errorf("expected 3 retries with 500ms backoff, got %d/%d", config.Retry.Retries, config.Retry.BackoffMS)
		}

		if config.Retry.MigrationBackoffMS != 2000 || config.Retry.MigrationJitterMS != 250 {
			t.Errorf("unexpected migration policy %d/%d", config.Retry.MigrationBackoffMS, config.Retry.MigrationJitterMS)
		}

		if config.Paging.FollowCap != 260 {
			t.Errorf("expected follow cap 260, got %d", config.Paging.FollowCap)
		}

		if config.Credentials.CookieName != "__session" {
			t.Errorf("expected cookie name __session, got %s", config.Credentials.CookieName)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[retry]
retries = 5

[credentials]
cookie_file = "/tmp/cookie.txt"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Retry.Retries != 5 {
			t.Errorf("expected 5 retries, got %d", config.Retry.Retries)
		}

		if config.Credentials.CookieFile != "/tmp/cookie.txt" {
			t.Errorf("expected cookie file /tmp/cookie.txt, got %s", config.Credentials.CookieFile)
		}

		t.Run("fills missing values from defaults", func(t *testing.T) {
			if config.Retry.BackoffMS != 500 {
				t.Errorf("expected default backoff 500, got %d", config.Retry.BackoffMS)
			}
			if config.Credentials.CookieName != "__session" {
				t.Errorf("expected default cookie name, got %s", config.Credentials.CookieName)
			}
			if config.Index.UIPageSize != 20 {
				t.Errorf("expected default ui page size 20, got %d", config.Index.UIPageSize)
			}
		})
	})

	t.Run("LoadConfig keeps explicit zero values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[retry]
retries = 0
backoff_ms = 0
jitter_ms = 0
migration_jitter_ms = 0

[paging]
follow_delay_ms = 0

[credentials]
token_env = ""
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Retry.Retries != 0 {
			t.Errorf("expected retries 0, got %d", config.Retry.Retries)
		}
		if config.Retry.BackoffMS != 0 || config.Retry.JitterMS != 0 || config.Retry.MigrationJitterMS != 0 {
			t.Errorf("expected zero backoff and jitter, got %d/%d/%d",
				config.Retry.BackoffMS, config.Retry.JitterMS, config.Retry.MigrationJitterMS)
		}
		if config.Paging.FollowDelayMS != 0 {
			t.Errorf("expected follow delay 0, got %d", config.Paging.FollowDelayMS)
		}
		if config.Credentials.TokenEnv != "" {
			t.Errorf("expected token env to be disabled, got %q", config.Credentials.TokenEnv)
		}
		if config.Retry.MigrationBackoffMS != 2000 {
			t.Errorf("expected untouched migration backoff 2000, got %d", config.Retry.MigrationBackoffMS)
		}
	})

	t.Run("LoadConfig rejects unknown keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[retry]\nretires = 2\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig rejects invalid store", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[index]\nstore = \"redis\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Durations", func(t *testing.T) {
		if Ms(120) != 120*time.Millisecond {
			t.Errorf("Ms(120) = %v", Ms(120))
		}
		if (APIConfig{TimeoutSeconds: 30}).Timeout() != 30*time.Second {
			t.Error("expected 30s timeout")
		}
	})
}
