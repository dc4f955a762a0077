package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// EnvAPIURL overrides APIConfig.BaseURL when set.
	EnvAPIURL = "SHOPASSIST_API_URL"
	// EnvLogLevel overrides LogConfig.Level when set.
	EnvLogLevel = "SHOPASSIST_LOG_LEVEL"

	defaultBaseURL = "http://localhost:8000"
)

// APIConfig holds the remote shopping API address and client limits.
type APIConfig struct {
	BaseURL           string  `yaml:"base_url" validate:"required,url"`
	PathPrefix        string  `yaml:"path_prefix"`
	TimeoutSecs       int     `yaml:"timeout_secs" validate:"gte=0"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// SearchConfig configures the search mode.
type SearchConfig struct {
	Limit int `yaml:"limit" validate:"min=1,max=50"`
}

// ChatConfig configures the chat mode and how long answers are previewed.
type ChatConfig struct {
	ContextLimit     int  `yaml:"context_limit" validate:"min=1,max=10"`
	IncludeProducts  bool `yaml:"include_products"`
	PreviewSentences int  `yaml:"preview_sentences" validate:"gte=0"`
	PreviewThreshold int  `yaml:"preview_threshold" validate:"gte=0"`
}

// RecommendConfig configures recommendation fetches.
type RecommendConfig struct {
	Limit int `yaml:"limit" validate:"min=1,max=20"`
}

// LogConfig configures the log file.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	API       APIConfig       `yaml:"api"`
	Search    SearchConfig    `yaml:"search"`
	Chat      ChatConfig      `yaml:"chat"`
	Recommend RecommendConfig `yaml:"recommend"`
	Log       LogConfig       `yaml:"log"`
}

var validate = validator.New()

// Validate checks the configuration against its bounds.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/shopassist/config.yaml.
// If neither exists, it writes defaults to ~/.config/shopassist/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, cfg.Validate()
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shopassist", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		API:       APIConfig{BaseURL: defaultBaseURL, PathPrefix: "/api", Burst: 1},
		Search:    SearchConfig{Limit: 12},
		Chat:      ChatConfig{ContextLimit: 3, IncludeProducts: true, PreviewSentences: 2, PreviewThreshold: 400},
		Recommend: RecommendConfig{Limit: 6},
		Log:       LogConfig{Level: "info"},
	}
}

// applyConfigDefaults fills fields a partial YAML file explicitly zeroed.
func applyConfigDefaults(cfg *AppConfig) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaultBaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.RequestsPerSecond > 0 && cfg.API.Burst == 0 {
		cfg.API.Burst = 1
	}
	if cfg.Search.Limit == 0 {
		cfg.Search.Limit = 12
	}
	if cfg.Chat.ContextLimit == 0 {
		cfg.Chat.ContextLimit = 3
	}
	if cfg.Recommend.Limit == 0 {
		cfg.Recommend.Limit = 6
	}
}

func applyEnv(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}
