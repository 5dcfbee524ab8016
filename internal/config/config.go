package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	TMDB      TMDBConfig      `koanf:"tmdb"`
	HTTP      HTTPConfig      `koanf:"http"`
	Recommend RecommendConfig `koanf:"recommend"`
	Session   SessionConfig   `koanf:"session"`
	Redis     RedisConfig     `koanf:"redis"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// GeminiConfig configures the recommendation model. An empty APIKey is not a
// startup error; requests fail with a ConfigurationError instead.
type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model" validate:"required"`
	BaseURL string `koanf:"base_url" validate:"required,url"`
}

type TMDBConfig struct {
	APIKey       string `koanf:"api_key"`
	BaseURL      string `koanf:"base_url" validate:"required,url"`
	ImageBaseURL string `koanf:"image_base_url" validate:"required,url"`
}

type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

type RecommendConfig struct {
	// PosterLookupStrict fails the whole run when any poster lookup fails.
	PosterLookupStrict bool `koanf:"poster_lookup_strict"`
}

type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl" validate:"gt=0"`
	SeedFavorites bool          `koanf:"seed_favorites"`
}

// RedisConfig selects the Redis session store when URL is set.
type RedisConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	File   string `koanf:"file"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		},
		TMDB: TMDBConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		},
		HTTP:    HTTPConfig{Timeout: 30 * time.Second},
		Session: SessionConfig{TTL: 24 * time.Hour, SeedFavorites: true},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load layers defaults, an optional YAML file and the environment, in that
// order, then validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Gemini.APIKey = strings.TrimSpace(c.Gemini.APIKey)
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.Gemini.BaseURL = strings.TrimRight(c.Gemini.BaseURL, "/")
	c.TMDB.BaseURL = strings.TrimRight(c.TMDB.BaseURL, "/")
	c.TMDB.ImageBaseURL = strings.TrimRight(c.TMDB.ImageBaseURL, "/")
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envMappings maps environment variable names (lower-cased) to config keys.
// Unknown variables are ignored.
var envMappings = map[string]string{
	"port":                 "server.port",
	"request_timeout":      "server.request_timeout",
	"shutdown_timeout":     "server.shutdown_timeout",
	"api_key":              "gemini.api_key",
	"gemini_api_key":       "gemini.api_key",
	"gemini_model":         "gemini.model",
	"gemini_base_url":      "gemini.base_url",
	"tmdb_api_key":         "tmdb.api_key",
	"tmdb_base_url":        "tmdb.base_url",
	"tmdb_image_base_url":  "tmdb.image_base_url",
	"upstream_timeout":     "http.timeout",
	"poster_lookup_strict": "recommend.poster_lookup_strict",
	"session_ttl":          "session.ttl",
	"seed_favorites":       "session.seed_favorites",
	"redis_url":            "redis.url",
	"log_level":            "log.level",
	"log_format":           "log.format",
	"log_file":             "log.file",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	// GEMINI_API_KEY wins over the legacy API_KEY when both are set.
	if key == "api_key" && os.Getenv("GEMINI_API_KEY") != "" {
		return ""
	}
	return envMappings[key]
}
