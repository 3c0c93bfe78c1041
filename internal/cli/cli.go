// Package cli implements the pixelforge command-line interface.
//
// This package provides commands for converting pseudo pixel art into exact
// block grids, estimating block sizes, materializing vector documents back
// into rasters, talking to the generation and background-removal services,
// and managing the blob store, session and cache. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - convert: Reconstruct the block grid of an image (svg, json, png, editable)
//   - estimate: Score candidate block sizes and pick the best
//   - bounds: Print the visible content bounding box
//   - materialize: Render a vector document back into rasters
//   - generate, remove-bg: Call the image services
//   - store, session, cache: Manage stored state
//   - serve: Run the HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pixelforge/pkg/blob"
	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/config"
	"github.com/matzehuels/pixelforge/pkg/errors"
	"github.com/matzehuels/pixelforge/pkg/estimate"
	"github.com/matzehuels/pixelforge/pkg/integrations/generation"
	"github.com/matzehuels/pixelforge/pkg/integrations/rmbg"
	"github.com/matzehuels/pixelforge/pkg/pipeline"
	"github.com/matzehuels/pixelforge/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pixelforge"

	// tokenEnv holds the services API token when the config has none.
	tokenEnv = "PIXELFORGE_SERVICES_TOKEN"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file and environment into c.Config.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	est, err := estimate.New(c.Config.Estimator)
	if err != nil {
		ch.Close()
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, est, c.Logger), nil
}

// newCache opens the configured cache backend. A cache that cannot be
// opened degrades to no caching with a warning.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}

	var (
		ch  cache.Cache
		err error
	)
	switch cfg.Backend {
	case config.BackendRedis:
		ch, err = cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: appName + ":"})
	default:
		var dir string
		if dir, err = c.cacheDir(); err == nil {
			ch, err = cache.NewFileCache(dir)
		}
	}
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Backend, "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.WithTTL(ch, cfg.TTL.Duration), nil
}

// newBlobStore opens the configured blob store.
func (c *CLI) newBlobStore(ctx context.Context) (blob.Store, error) {
	cfg := c.Config.Store
	switch cfg.Backend {
	case config.BackendRedis:
		return blob.DialRedisStore(ctx, cfg.RedisAddr, "", 0, cfg.RedisPrefix, cfg.BaseURL)
	case config.BackendMongo:
		return blob.NewMongoStore(ctx, blob.MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Bucket:   cfg.MongoBucket,
			BaseURL:  cfg.BaseURL,
		})
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := dataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(d, "blobs")
		}
		return blob.NewFileStore(dir, cfg.BaseURL)
	}
}

// newSessionStore opens the latest-session store.
func (c *CLI) newSessionStore() (*session.CLIStore, error) {
	return session.NewCLIStore("")
}

// updateSession applies fn to the latest session and saves it. Failures are
// logged; a broken session file never fails a command.
func (c *CLI) updateSession(ctx context.Context, fn func(session.Session) session.Session) {
	sessions, err := c.newSessionStore()
	if err == nil {
		var sess session.Session
		if sess, err = sessions.Latest(ctx); err == nil {
			err = sessions.Save(ctx, fn(sess))
		}
	}
	if err != nil {
		c.Logger.Debug("could not save session", "err", err)
	}
}

// servicesToken returns the services token from config or environment.
func (c *CLI) servicesToken() (string, error) {
	token := c.Config.Services.Token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "no services token: set services.token or %s", tokenEnv)
	}
	return token, nil
}

// servicesURL returns the base URL of the image services.
func (c *CLI) servicesURL() (string, error) {
	if c.Config.Services.BaseURL == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "no services base_url configured")
	}
	return c.Config.Services.BaseURL, nil
}

// newGenerationClient creates a generation client from the configuration.
func (c *CLI) newGenerationClient(ch cache.Cache) (*generation.Client, error) {
	url, token, err := c.services()
	if err != nil {
		return nil, err
	}
	client := generation.NewClient(url, token, ch)
	client.SetTimeout(c.Config.Services.Timeout.Duration)
	return client, nil
}

// newRemovalClient creates a background-removal client from the configuration.
func (c *CLI) newRemovalClient(ch cache.Cache) (*rmbg.Client, error) {
	url, token, err := c.services()
	if err != nil {
		return nil, err
	}
	client := rmbg.NewClient(url, token, ch)
	client.SetTimeout(c.Config.Services.Timeout.Duration)
	return client, nil
}

func (c *CLI) services() (url, token string, err error) {
	if url, err = c.servicesURL(); err != nil {
		return "", "", err
	}
	if token, err = c.servicesToken(); err != nil {
		return "", "", err
	}
	return url, token, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/pixelforge/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pixelforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/pixelforge/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for f := range strings.SplitSeq(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// outputPath names the file for one format. base is the --output value; an
// empty base derives "<stem>_perfect_<N>px" from the input file.
func outputPath(input, base, format string, blockSize int, multi bool) string {
	switch {
	case base == "":
		return pipeline.OutputName(input, format, blockSize)
	case !multi:
		return base
	default:
		return pipeline.ArtifactName(strings.TrimSuffix(base, filepath.Ext(base)), format)
	}
}
