// Package config loads application settings for the tiktok-api and
// tiktok-signer binaries from YAML with TIKTOK_* environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/tikstock/tiktok-go/pkg/logging"
	"github.com/tikstock/tiktok-go/pkg/signer"
	"github.com/tikstock/tiktok-go/pkg/tiktok"
)

var validate = validator.New()

// Config is the full application configuration.
type Config struct {
	TikTok TikTokConfig `yaml:"tiktok"`
	Redis  RedisConfig  `yaml:"redis"`
	Server ServerConfig `yaml:"server"`
	Signer SignerConfig `yaml:"signer"`
	Log    LogConfig    `yaml:"log"`
}

// TikTokConfig configures the API client.
type TikTokConfig struct {
	SignatureService string        `yaml:"signature_service" validate:"omitempty,url"`
	BaseURL          string        `yaml:"base_url" validate:"required,url"`
	UserAgent        string        `yaml:"user_agent"`
	Referer          string        `yaml:"referer" validate:"omitempty,url"`
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"gte=0"`
	CacheTTL         time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	MaxConcurrency   int           `yaml:"max_concurrency" validate:"min=1,max=64"`
	Browser          BrowserConfig `yaml:"browser"`
}

// BrowserConfig configures the local browser signer.
type BrowserConfig struct {
	Bin      string        `yaml:"bin"`
	Headless bool          `yaml:"headless"`
	PageURL  string        `yaml:"page_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
}

// RedisConfig enables the response cache when Address is set.
type RedisConfig struct {
	Address  string `yaml:"address" validate:"omitempty,hostname_port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0,max=15"`
}

// ServerConfig configures the REST front-end.
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// SignerConfig configures the signing service.
type SignerConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file or variables are set.
func Default() Config {
	browser := signer.DefaultBrowserConfig()
	return Config{
		TikTok: TikTokConfig{
			BaseURL:        tiktok.DefaultBaseURL,
			RequestTimeout: 30 * time.Second,
			CacheTTL:       60 * time.Second,
			MaxConcurrency: 5,
			Browser: BrowserConfig{
				Headless: browser.Headless,
				PageURL:  browser.PageURL,
				Timeout:  browser.Timeout,
			},
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Signer: SignerConfig{
			Addr: ":8081",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path (optional), applies environment overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without reading the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.TikTok.SignatureService, "TIKTOK_SIGNATURE_SERVICE")
	setString(&c.TikTok.BaseURL, "TIKTOK_BASE_URL")
	setString(&c.TikTok.UserAgent, "TIKTOK_USER_AGENT")
	setString(&c.TikTok.Browser.Bin, "TIKTOK_BROWSER_BIN")
	setString(&c.Redis.Address, "TIKTOK_REDIS_ADDR")
	setString(&c.Redis.Password, "TIKTOK_REDIS_PASSWORD")
	setString(&c.Server.Addr, "TIKTOK_API_ADDR")
	setString(&c.Signer.Addr, "TIKTOK_SIGNER_ADDR")
	setString(&c.Log.Level, "TIKTOK_LOG_LEVEL")

	if err := setDuration(&c.TikTok.RequestTimeout, "TIKTOK_REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.TikTok.CacheTTL, "TIKTOK_CACHE_TTL"); err != nil {
		return err
	}
	if err := setInt(&c.TikTok.MaxConcurrency, "TIKTOK_MAX_CONCURRENCY"); err != nil {
		return err
	}
	if err := setBool(&c.TikTok.Browser.Headless, "TIKTOK_BROWSER_HEADLESS"); err != nil {
		return err
	}
	return setBool(&c.Log.Pretty, "TIKTOK_LOG_PRETTY")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

// Validate checks the configuration against its validation tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	field = strings.ToLower(field)

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ClientConfig converts the TikTok section into a facade configuration. rdb
// may be nil to disable caching.
func (c Config) ClientConfig(rdb *redis.Client) tiktok.Config {
	cfg := tiktok.DefaultConfig()
	cfg.SignatureService = c.TikTok.SignatureService
	cfg.BaseURL = c.TikTok.BaseURL
	if c.TikTok.UserAgent != "" {
		cfg.UserAgent = c.TikTok.UserAgent
	}
	if c.TikTok.Referer != "" {
		cfg.Referer = c.TikTok.Referer
	}
	cfg.RequestTimeout = c.TikTok.RequestTimeout
	cfg.CacheTTL = c.TikTok.CacheTTL
	cfg.MaxConcurrency = c.TikTok.MaxConcurrency
	cfg.Browser = c.BrowserConfig()
	cfg.Redis = rdb
	return cfg
}

// BrowserConfig converts the browser section into a signer configuration.
func (c Config) BrowserConfig() signer.BrowserConfig {
	return signer.BrowserConfig{
		Bin:      c.TikTok.Browser.Bin,
		Headless: c.TikTok.Browser.Headless,
		PageURL:  c.TikTok.Browser.PageURL,
		Timeout:  c.TikTok.Browser.Timeout,
	}
}

// RedisOptions returns connection options, or nil when no address is set.
func (c Config) RedisOptions() *redis.Options {
	if c.Redis.Address == "" {
		return nil
	}
	return &redis.Options{
		Addr:     c.Redis.Address,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// LoggingConfig converts the log section.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
