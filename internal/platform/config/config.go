package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Known provider names, in default priority order.
var KnownProviders = []string{"numverify", "twilio", "whitepages"}

const (
	DefaultAddr            = ":8080"
	DefaultCacheTTL        = time.Hour
	DefaultCacheMaxEntries = 10000
	DefaultProviderTimeout = 10 * time.Second
)

// Config is the full service configuration.
type Config struct {
	Addr            string
	Cache           CacheConfig
	Redis           RedisConfig
	ProviderTimeout time.Duration
	Providers       []ProviderConfig
	Log             LogConfig
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// RedisConfig configures the optional shared cache tier. An empty URL
// disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// ProviderConfig describes one lookup provider. Its position in
// Config.Providers is its merge priority.
type ProviderConfig struct {
	Name               string  `yaml:"name"`
	APIKey             string  `yaml:"api_key"`
	AccountSID         string  `yaml:"account_sid"`
	AuthToken          string  `yaml:"auth_token"`
	BaseURL            string  `yaml:"base_url"`
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
}

type fileConfig struct {
	Providers []ProviderConfig `yaml:"providers"`
}

// FromEnv builds the configuration from environment variables so main stays
// lean. When LOOKUP_CONFIG_FILE is set, its provider list replaces the one
// derived from the environment.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr: envOr(getenv, "LOOKUP_ADDR", DefaultAddr),
		Cache: CacheConfig{
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheMaxEntries,
		},
		Redis: RedisConfig{
			URL:          getenv("CACHE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		ProviderTimeout: DefaultProviderTimeout,
		Log: LogConfig{
			Level:  envOr(getenv, "LOG_LEVEL", "info"),
			Format: envOr(getenv, "LOG_FORMAT", "json"),
		},
	}

	var errs []error
	if v := getenv("CACHE_TTL"); v != "" {
		d, err := parseSeconds(v)
		errs = append(errs, wrapVar("CACHE_TTL", err))
		cfg.Cache.TTL = d
	}
	if v := getenv("CACHE_MAX_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapVar("CACHE_MAX_ENTRIES", err))
		cfg.Cache.MaxEntries = n
	}
	if v := getenv("PROVIDER_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		errs = append(errs, wrapVar("PROVIDER_TIMEOUT", err))
		cfg.ProviderTimeout = d
	}
	if v := getenv("CACHE_REDIS_POOL_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapVar("CACHE_REDIS_POOL_SIZE", err))
		cfg.Redis.PoolSize = n
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	names := KnownProviders
	if v := getenv("LOOKUP_PROVIDERS"); v != "" {
		names = splitList(v)
	}
	for _, name := range names {
		cfg.Providers = append(cfg.Providers, providerFromEnv(getenv, name))
	}

	if path := getenv("LOOKUP_CONFIG_FILE"); path != "" {
		providers, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Providers = providers
	}
	return cfg, nil
}

// LoadFile reads the ordered provider list from a YAML file:
//
//	providers:
//	  - name: twilio
//	    account_sid: AC123
//	    auth_token: secret
//	  - name: numverify
//	    api_key: abc
//	    rate_limit_per_second: 2
func LoadFile(path string) ([]ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	for i := range fc.Providers {
		fc.Providers[i].Name = strings.ToLower(strings.TrimSpace(fc.Providers[i].Name))
	}
	return fc.Providers, nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must be positive"))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		switch {
		case !slices.Contains(KnownProviders, p.Name):
			errs = append(errs, fmt.Errorf("unknown provider %q", p.Name))
		case seen[p.Name]:
			errs = append(errs, fmt.Errorf("provider %q listed twice", p.Name))
		case p.RateLimitPerSecond < 0:
			errs = append(errs, fmt.Errorf("provider %q: rate_limit_per_second must not be negative", p.Name))
		}
		seen[p.Name] = true
	}
	return errors.Join(errs...)
}

func providerFromEnv(getenv func(string) string, name string) ProviderConfig {
	pc := ProviderConfig{Name: name}
	switch name {
	case "numverify":
		pc.APIKey = getenv("NUMVERIFY_KEY")
		pc.BaseURL = getenv("NUMVERIFY_BASE_URL")
	case "twilio":
		pc.AccountSID = getenv("TWILIO_SID")
		pc.AuthToken = getenv("TWILIO_AUTH")
		pc.BaseURL = getenv("TWILIO_BASE_URL")
	case "whitepages":
		pc.APIKey = getenv("WHITEPAGES_KEY")
	}
	return pc
}

// parseSeconds accepts a plain number of seconds or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func wrapVar(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
