// Package cli implements the odoomig command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/internal/config"
	"github.com/matzehuels/odoomig/pkg/buildinfo"
	"github.com/matzehuels/odoomig/pkg/cache"
	"github.com/matzehuels/odoomig/pkg/feed"
	odooio "github.com/matzehuels/odoomig/pkg/io"
	"github.com/matzehuels/odoomig/pkg/manifest"
	"github.com/matzehuels/odoomig/pkg/marabunta"
	"github.com/matzehuels/odoomig/pkg/odoo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "odoomig"
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

	// Out receives command results (JSON, states, TOML). Status lines and
	// logs go to stderr so that results can be piped.
	Out io.Writer

	// Source overrides the database feed, mostly for tests.
	Source feed.Source

	// Manifests overrides addons path scanning, mostly for tests.
	Manifests []manifest.Manifest

	// Shell overrides the subprocess runner of migrations, mostly for tests.
	Shell marabunta.Shell

	cfg        *config.Config
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Odoo migration tooling: module graphs, view trees and migration logs",
		Long: `odoomig reads the module dependency graph of an Odoo database, merges it with
the manifests found in the project's addons paths and answers the questions
of a migration: what to update, install or remove, which dependencies are
redundant, which views must be kept. It also splits marabunta migrations in
pre and post phases and scrapes migration logs for failures.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringP("database", "d", config.DefaultDatabase, "database to read")
	flags.StringVar(&c.configPath, "config", "", "config file (default ./"+config.FileName+")")
	flags.String("psql", "", "psql command used to query databases (default from config)")
	flags.Bool("no-cache", false, "query the database even if a cached feed exists")

	// Register all subcommands
	root.AddCommand(c.modulesCommand())
	root.AddCommand(c.viewsCommand())
	root.AddCommand(c.logCommand())
	root.AddCommand(c.migrationCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration once flags are parsed.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Check(); err != nil {
		return err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() > lvl {
		c.Logger.SetLevel(lvl)
	}
	for _, w := range cfg.Validate() {
		c.Logger.Warn(w)
	}
	if cfg.File != "" {
		c.Logger.Debug("loaded config", "file", cfg.File)
	}
	c.cfg = cfg
	c.registerHooks()
	return nil
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root's pre-run (tests calling subcommands directly).
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		cfg := config.Defaults()
		c.cfg = &cfg
	}
	return c.cfg
}

// =============================================================================
// Feeds
// =============================================================================

// source returns the database feed. Without a usable cache the feed goes
// through a null cache. The returned function releases the cache.
func (c *CLI) source(ctx context.Context) (feed.Source, func()) {
	if c.Source != nil {
		return c.Source, func() {}
	}
	cfg := c.settings()
	psql := feed.NewPsql(cfg.Psql.Command, feed.WithLogger(c.Logger))
	ch := cache.NewNullCache()
	if cfg.Cache.Enabled {
		opened, err := c.openCache(ctx)
		if err != nil {
			c.Logger.Warn("cache unavailable, querying the database directly", "error", err)
		} else {
			ch = opened
		}
	}
	keyer := cache.NewDefaultKeyer()
	if cwd, err := os.Getwd(); err == nil {
		keyer = cache.NewScopedKeyer(keyer, cache.ProjectPrefix(cwd))
	}
	return feed.NewCached(psql, ch, keyer, cfg.Cache.TTLDuration(), c.Logger), func() { _ = ch.Close() }
}

// openCache opens the configured cache backend: Redis when a URL is set,
// files otherwise.
func (c *CLI) openCache(ctx context.Context) (cache.Cache, error) {
	cfg := c.settings()
	if cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL, "")
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) manifests() ([]manifest.Manifest, error) {
	if c.Manifests != nil {
		return c.Manifests, nil
	}
	cfg := c.settings()
	return manifest.LoadAll(cfg.Addons.Paths, cfg.Addons.Depth, c.Logger)
}

// loadModules builds the module graph of database, or of the snapshot file
// when one is given.
func (c *CLI) loadModules(ctx context.Context, database, snapshot string, opts odoo.Options) (*odoo.Modules, error) {
	prog := newProgress(c.Logger)
	if snapshot != "" {
		snap, err := odooio.ImportJSON(snapshot)
		if err != nil {
			return nil, err
		}
		m, err := snap.Graph(opts)
		if err != nil {
			return nil, err
		}
		prog.done(fmt.Sprintf("Loaded %d modules from snapshot of %s", m.Graph().NodeCount(), snap.Database))
		return m, nil
	}

	manifests, err := c.manifests()
	if err != nil {
		return nil, err
	}
	src, release := c.source(ctx)
	defer release()

	spin := c.spinner(ctx, fmt.Sprintf("Querying %s...", database))
	m, err := odoo.Load(ctx, src, database, manifests, opts)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d modules from %s", m.Graph().NodeCount(), database))
	return m, nil
}

// loadViews builds the view inheritance tree of database.
func (c *CLI) loadViews(ctx context.Context, database string) (*odoo.HierarchicalTable, error) {
	prog := newProgress(c.Logger)
	src, release := c.source(ctx)
	defer release()

	spin := c.spinner(ctx, fmt.Sprintf("Querying views of %s...", database))
	ht, err := odoo.LoadViews(ctx, src, database)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Loaded %d views from %s", ht.Graph().NodeCount(), database))
	return ht, nil
}

// database returns the --database flag value, falling back to the config.
func (c *CLI) database(cmd *cobra.Command) string {
	if f := cmd.Flags().Lookup("database"); f != nil && f.Changed {
		return f.Value.String()
	}
	return c.settings().Database
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/odoomig/).
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
