package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jfmyers9/amzn/internal/cookiestore"
	"github.com/jfmyers9/amzn/pkg/amazonmusic"
)

// PasswordEnv is the environment variable the password is read from. The
// password is never written to the config file.
const PasswordEnv = "AMZN_PASSWORD"

// Config holds application configuration
type Config struct {
	// Amazon account email used when a sign-in form must be submitted
	Email string

	// Cookie database location
	// Default: ~/.amzn.cookies
	CookiePath string

	// Request Prime content rather than Amazon Music Unlimited
	// Default: true
	Prime bool

	// Log level (debug, info, warn, error)
	// Default: "warn"
	LogLevel string

	// Column width for track and album names in listings
	// Default: 40
	OutputWidth int

	// HTTP client settings
	HTTP HTTPConfig
}

// HTTPConfig holds transport settings
type HTTPConfig struct {
	RetryMax          int
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Load reads configuration from file and environment. An empty path
// searches the config directory and the working directory; a missing file
// is fine there, but an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(getConfigDir())
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("email", "")
	v.SetDefault("cookie_path", cookiestore.DefaultPath())
	v.SetDefault("prime", true)
	v.SetDefault("log_level", "warn")
	v.SetDefault("output_width", 40)
	v.SetDefault("http.retry_max", 3)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.requests_per_second", 5.0)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Read from environment variables, e.g. AMZN_HTTP_RETRY_MAX
	v.SetEnvPrefix("AMZN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Email:       v.GetString("email"),
		CookiePath:  expandHome(v.GetString("cookie_path")),
		Prime:       v.GetBool("prime"),
		LogLevel:    v.GetString("log_level"),
		OutputWidth: v.GetInt("output_width"),
		HTTP: HTTPConfig{
			RetryMax:          v.GetInt("http.retry_max"),
			TimeoutSeconds:    v.GetInt("http.timeout_seconds"),
			RequestsPerSecond: v.GetFloat64("http.requests_per_second"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.CookiePath == "":
		return fmt.Errorf("%w: cookie_path must not be empty", amazonmusic.ErrInvalidConfig)
	case c.OutputWidth <= 0:
		return fmt.Errorf("%w: output_width must be positive, got %d", amazonmusic.ErrInvalidConfig, c.OutputWidth)
	case c.HTTP.RetryMax < 0:
		return fmt.Errorf("%w: http.retry_max must not be negative, got %d", amazonmusic.ErrInvalidConfig, c.HTTP.RetryMax)
	case c.HTTP.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: http.timeout_seconds must be positive, got %d", amazonmusic.ErrInvalidConfig, c.HTTP.TimeoutSeconds)
	case c.HTTP.RequestsPerSecond < 0:
		return fmt.Errorf("%w: http.requests_per_second must not be negative, got %g", amazonmusic.ErrInvalidConfig, c.HTTP.RequestsPerSecond)
	}
	return nil
}

// Subscription returns the catalog tier to request.
func (c *Config) Subscription() amazonmusic.Subscription {
	if c.Prime {
		return amazonmusic.SubscriptionPrime
	}
	return amazonmusic.SubscriptionMusic
}

// Timeout returns the HTTP timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", "amzn")
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// expandHome replaces a leading ~ with the home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Save writes configuration to path, or to config.yaml in the config
// directory when path is empty. The password is never saved.
func (c *Config) Save(path string) error {
	if path == "" {
		configDir := getConfigDir()
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		path = filepath.Join(configDir, "config.yaml")
	}

	v := viper.New()
	v.Set("email", c.Email)
	v.Set("cookie_path", c.CookiePath)
	v.Set("prime", c.Prime)
	v.Set("log_level", c.LogLevel)
	v.Set("output_width", c.OutputWidth)
	v.Set("http.retry_max", c.HTTP.RetryMax)
	v.Set("http.timeout_seconds", c.HTTP.TimeoutSeconds)
	v.Set("http.requests_per_second", c.HTTP.RequestsPerSecond)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
