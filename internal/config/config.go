package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Matching MatchingConfig
	Storage  StorageConfig
	Taxonomy TaxonomyConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type CatalogConfig struct {
	// Source selects the issue catalog: "match" for the match service,
	// "github" for direct GitHub search.
	Source        string
	BaseURL       string
	GitHubBaseURL string
	Timeout       string
	MaxResults    int
	PerKeyword    int

	// GitHubToken raises search rate limits; optional.
	GitHubToken string
}

type MatchingConfig struct {
	TopKSkills int
}

type StorageConfig struct {
	DataDir string
}

type TaxonomyConfig struct {
	// Path points to a custom quiz taxonomy JSON; empty uses the built-in quiz.
	Path string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4400,
		},
		Catalog: CatalogConfig{
			Source:        "match",
			BaseURL:       "http://localhost:8000/api/v1",
			GitHubBaseURL: "https://api.github.com",
			Timeout:       "20s",
			MaxResults:    10,
			PerKeyword:    5,
		},
		Matching: MatchingConfig{
			TopKSkills: 4,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.goodfirst.app) and
// secrets fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/goodfirst/config.json
// and secrets live in a secrets file under $XDG_DATA_HOME/goodfirst.
//
// Environment variables (GOODFIRST_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts secret store reads for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try platform keychain for the GitHub token if still empty.
	if cfg.Catalog.GitHubToken == "" {
		if tok, err := kc.Get(keychainService, "github_token"); err == nil && tok != "" {
			cfg.Catalog.GitHubToken = tok
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Catalog.Source {
	case "match", "github":
	default:
		return fmt.Errorf("invalid catalog.source %q: must be \"match\" or \"github\"", cfg.Catalog.Source)
	}
	if _, err := time.ParseDuration(cfg.Catalog.Timeout); err != nil {
		return fmt.Errorf("invalid catalog.timeout %q: %w", cfg.Catalog.Timeout, err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", cfg.Server.Port)
	}
	return nil
}

// CatalogTimeout parses the configured fetch timeout. Load has already
// validated it.
func (c Config) CatalogTimeout() time.Duration {
	d, err := time.ParseDuration(c.Catalog.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
