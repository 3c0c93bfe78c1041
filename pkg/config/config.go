// Package config loads pixelforge settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/pixelforge/config.toml
//  3. PIXELFORGE_* environment variables
//
// CLI flags are applied on top by the command layer.
//
// # File Format
//
//	alpha_threshold = 128
//	block_size = 16
//	candidates = [8, 16, 24, 32]
//	estimator = "gradient"
//	workers = 4
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[services]
//	base_url = "https://engine.example.com/v2"
//	timeout = "2m"
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
)

// Defaults.
const (
	DefaultAlphaThreshold = 128
	DefaultBlockSize      = 16
	DefaultServerAddr     = ":8080"
	DefaultServiceTimeout = 2 * time.Minute

	envPrefix = "PIXELFORGE_"
	appName   = "pixelforge"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Config is the full pixelforge configuration.
type Config struct {
	AlphaThreshold int    `toml:"alpha_threshold"`
	BlockSize      int    `toml:"block_size"`
	Candidates     []int  `toml:"candidates"`
	Estimator      string `toml:"estimator"`
	Workers        int    `toml:"workers"`

	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Services ServicesConfig `toml:"services"`
	Server   ServerConfig   `toml:"server"`
}

// CacheConfig selects the estimate/artifact cache.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
	TTL       Duration `toml:"ttl"`
}

// StoreConfig selects the blob store.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	BaseURL       string `toml:"base_url"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	MongoBucket   string `toml:"mongo_bucket"`
}

// ServicesConfig points at the generation and background-removal services.
type ServicesConfig struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

// ServerConfig configures "pixelforge serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that decodes from TOML strings like "90s".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AlphaThreshold: DefaultAlphaThreshold,
		BlockSize:      DefaultBlockSize,
		Candidates:     slices.Clone(estimate.DefaultCandidates),
		Estimator:      estimate.VariantGradient,
		Workers:        1,
		Cache:          CacheConfig{Backend: BackendFile, RedisAddr: "localhost:6379"},
		Store: StoreConfig{
			Backend:       BackendFile,
			RedisAddr:     "localhost:6379",
			RedisPrefix:   appName + ":",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
			MongoBucket:   "blobs",
		},
		Services: ServicesConfig{Timeout: Duration{DefaultServiceTimeout}},
		Server:   ServerConfig{Addr: DefaultServerAddr},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/pixelforge/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load reads the configuration. An empty path uses [DefaultPath]; a missing
// default file is not an error, a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			switch {
			case os.IsNotExist(err) && !explicit:
			case os.IsNotExist(err):
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			default:
				return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text on top of the defaults. Environment variables are
// not consulted.
func Parse(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, cfg.Validate()
}

// applyEnv overrides fields from PIXELFORGE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", envPrefix, name)
		}
		*dst = n
		return nil
	}

	for name, dst := range map[string]*int{
		"ALPHA_THRESHOLD": &c.AlphaThreshold,
		"BLOCK_SIZE":      &c.BlockSize,
		"WORKERS":         &c.Workers,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup(envPrefix + "CANDIDATES"); ok {
		sizes, err := ParseCandidates(v)
		if err != nil {
			return err
		}
		c.Candidates = sizes
	}

	str("ESTIMATOR", &c.Estimator)
	str("CACHE_BACKEND", &c.Cache.Backend)
	str("CACHE_DIR", &c.Cache.Dir)
	str("REDIS_ADDR", &c.Cache.RedisAddr)
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("STORE_BASE_URL", &c.Store.BaseURL)
	str("MONGO_URI", &c.Store.MongoURI)
	str("SERVICES_URL", &c.Services.BaseURL)
	str("SERVICES_TOKEN", &c.Services.Token)
	str("SERVER_ADDR", &c.Server.Addr)
	return nil
}

// ParseCandidates parses a comma-separated list such as "8,16,32".
func ParseCandidates(s string) ([]int, error) {
	var sizes []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidBlockSize, "invalid candidate %q", part)
		}
		sizes = append(sizes, n)
	}
	if err := errors.ValidateCandidates(sizes); err != nil {
		return nil, err
	}
	return sizes, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := errors.ValidateThreshold(c.AlphaThreshold); err != nil {
		return err
	}
	if err := errors.ValidateBlockSize(c.BlockSize); err != nil {
		return err
	}
	if err := errors.ValidateCandidates(c.Candidates); err != nil {
		return err
	}
	if _, err := estimate.New(c.Estimator); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be at least 1, got %d", c.Workers)
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendMongo}, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q", c.Store.Backend)
	}
	if c.Services.BaseURL != "" {
		if err := errors.ValidateURL(c.Services.BaseURL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "services.base_url")
		}
	}
	return nil
}

// Threshold returns the alpha threshold as the uint8 the core expects.
// Call after [Config.Validate].
func (c Config) Threshold() uint8 {
	return uint8(c.AlphaThreshold)
}
