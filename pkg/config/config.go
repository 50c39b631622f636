package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingKey is returned when no API key can be resolved from any source.
var ErrMissingKey = errors.New("no API key: set GROK_API_KEY or pass --key")

// Well-known model identifiers. The proxy is authoritative for what models
// exist; these are only defaults.
const (
	DefaultModel = "grok-3"
	ImageModel   = "grok-imagine-1.0"
	VideoModel   = "grok-imagine-1.0-video"
)

const defaultBaseURL = "https://mc.agaii.org/grok/v1"

// Config captures everything the client needs for one invocation.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Load resolves configuration once at process start. Precedence for the key:
// flagKey, then GROK_API_KEY (a .env file in the working directory may
// populate the environment), then the optional ~/.grokctl.yaml config file.
// A missing key is caught by Validate before any network call.
func Load(flagKey string) (Config, error) {
	// Best effort; most invocations have no .env.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("timeout_seconds", 300)

	_ = v.BindEnv("api_key", "GROK_API_KEY")
	_ = v.BindEnv("base_url", "GROK_BASE_URL")
	_ = v.BindEnv("model", "GROK_MODEL")
	_ = v.BindEnv("timeout_seconds", "GROK_TIMEOUT_SECONDS")

	if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigFile(filepath.Join(home, ".grokctl.yaml"))
		if err := v.ReadInConfig(); err != nil {
			var notFound *os.PathError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := Config{
		BaseURL: v.GetString("base_url"),
		APIKey:  v.GetString("api_key"),
		Model:   v.GetString("model"),
		Timeout: time.Duration(v.GetInt("timeout_seconds")) * time.Second,
	}
	if flagKey != "" {
		cfg.APIKey = flagKey
	}
	return cfg, nil
}

// Validate fails fast on configuration that would only fail later on the wire.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return ErrMissingKey
	}
	return nil
}
