package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API         APIConfig         `toml:"api"`
	Retry       RetryConfig       `toml:"retry"`
	Paging      PagingConfig      `toml:"paging"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Index       IndexConfig       `toml:"index"`
	Log         LogConfig         `toml:"log"`
}

// APIConfig contains the remote API location.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RetryConfig contains the request executor's retry policy.
type RetryConfig struct {
	Retries            int  `toml:"retries"`
	BackoffMS          int  `toml:"backoff_ms"`
	JitterMS           int  `toml:"jitter_ms"`
	MigrationBackoffMS int  `toml:"migration_backoff_ms"`
	MigrationJitterMS  int  `toml:"migration_jitter_ms"`
	FailFast4xx        bool `toml:"fail_fast_4xx"`
	CallerHeadersWin   bool `toml:"caller_headers_win"`
}

// PagingConfig contains page sizes, pacing delays and caps for sweeps.
type PagingConfig struct {
	ProfilesPageSize int `toml:"profiles_page_size"`
	ProfilesDelayMS  int `toml:"profiles_delay_ms"`
	LikedPageSize    int `toml:"liked_page_size"`
	LikedDelayMS     int `toml:"liked_delay_ms"`
	UnfollowDelayMS  int `toml:"unfollow_delay_ms"`
	FollowDelayMS    int `toml:"follow_delay_ms"`
	FollowJitterMS   int `toml:"follow_jitter_ms"`
	FollowCap        int `toml:"follow_cap"`
	ScoreStaggerMS   int `toml:"score_stagger_ms"`
}

// CredentialsConfig describes where the session token is read from.
type CredentialsConfig struct {
	CookieName string `toml:"cookie_name"`
	TokenEnv   string `toml:"token_env"`
	CookieFile string `toml:"cookie_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// IndexConfig contains search index storage settings.
type IndexConfig struct {
	Store      string `toml:"store"`
	FilePath   string `toml:"file_path"`
	Key        string `toml:"key"`
	UIPageSize int    `toml:"ui_page_size"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level   string `toml:"level"`
	TUIFile string `toml:"tui_file"`
}

// Ms converts a millisecond setting to a [time.Duration].
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// The file is decoded over [DefaultConfig], so keys it leaves out keep their defaults and keys it
// sets, zero values included, win. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	md, err := toml.Decode(string(data), config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undecoded)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports settings that would make sweeps loop or divide by zero.
func (c *Config) Validate() error {
	switch {
	case c.Retry.Retries < 0:
		return fmt.Errorf("%w: retry.retries must not be negative", ErrInvalidConfig)
	case c.Paging.ProfilesPageSize <= 0, c.Paging.LikedPageSize <= 0:
		return fmt.Errorf("%w: page sizes must be positive", ErrInvalidConfig)
	case c.Index.UIPageSize <= 0:
		return fmt.Errorf("%w: index.ui_page_size must be positive", ErrInvalidConfig)
	case c.Index.Store != "sqlite" && c.Index.Store != "file":
		return fmt.Errorf("%w: index.store must be \"sqlite\" or \"file\", got %q", ErrInvalidConfig, c.Index.Store)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
