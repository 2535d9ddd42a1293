// Package cli implements the wsbuild command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/wsbuild/pkg/buildtype"
	"github.com/matzehuels/wsbuild/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wsbuild"

	// configFile is the workspace configuration looked up in the current
	// directory.
	configFile = appName + ".toml"

	// configEnv names a configuration file that overrides the lookup.
	configEnv = "WSBUILD_CONFIG"
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

	// Registry resolves build types. Nil means buildtype.DefaultRegistry().
	Registry *buildtype.Registry

	// Interactive enables the spinner and the progress view. New sets it
	// when stderr is a terminal.
	Interactive bool

	configPath string
	config     *Config
	ws         workspaceFlags
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:      newLogger(w, level),
		Interactive: isTerminal(w),
		config:      &Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

func (c *CLI) registry() *buildtype.Registry {
	if c.Registry == nil {
		c.Registry = buildtype.DefaultRegistry()
	}
	return c.Registry
}

// showProgress reports whether decorative output fits the terminal: it is
// off for pipes and when debug logging would interleave with it.
func (c *CLI) showProgress() bool {
	return c.Interactive && c.Logger.GetLevel() > log.DebugLevel
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// =============================================================================
// Run History
// =============================================================================

// runHistory opens the per-user cache that remembers the last run of each
// workspace. It never fails: without a usable directory nothing is stored.
func (c *CLI) runHistory() cache.Cache {
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("run history disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// runRecord is what the run history keeps per workspace.
type runRecord struct {
	ID       string   `json:"id"`
	Verb     string   `json:"verb"`
	Done     []string `json:"done"`
	Failed   []string `json:"failed,omitempty"`
	NotRun   []string `json:"not_run,omitempty"`
	Duration string   `json:"duration"`
}

func historyKey(basePath string) string { return "run:" + basePath }

func (c *CLI) recordRun(ctx context.Context, basePath string, rec runRecord) {
	store := c.runHistory()
	defer store.Close()
	if err := cache.SetJSON(ctx, store, historyKey(basePath), rec); err != nil {
		c.Logger.Debug("could not record run", "err", err)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/wsbuild/).
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
