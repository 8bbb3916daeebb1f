// Package config loads odoomig settings from odoomig.toml, the environment
// and command line flags, in increasing order of precedence.
//
// Environment variables use the ODOOMIG_ prefix with dots replaced by
// underscores: ODOOMIG_DATABASE, ODOOMIG_PSQL_COMMAND, ODOOMIG_CACHE_REDIS_URL.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	odooerrors "github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
	"github.com/matzehuels/odoomig/pkg/manifest"
	"github.com/matzehuels/odoomig/pkg/marabunta"
	"github.com/matzehuels/odoomig/pkg/render/nodelink"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "odoomig.toml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "ODOOMIG"

// Config holds all odoomig configuration.
type Config struct {
	Database  string          `mapstructure:"database" toml:"database"`
	Psql      PsqlConfig      `mapstructure:"psql" toml:"psql"`
	Marabunta MarabuntaConfig `mapstructure:"marabunta" toml:"marabunta"`
	Addons    AddonsConfig    `mapstructure:"addons" toml:"addons"`
	Cache     CacheConfig     `mapstructure:"cache" toml:"cache"`
	Render    RenderConfig    `mapstructure:"render" toml:"render"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-" toml:"-"`
}

type PsqlConfig struct {
	Command string `mapstructure:"command" toml:"command"`
}

type MarabuntaConfig struct {
	Command string `mapstructure:"command" toml:"command"`
	File    string `mapstructure:"file" toml:"file"`
}

type AddonsConfig struct {
	Paths []string `mapstructure:"paths" toml:"paths"`
	Depth int      `mapstructure:"depth" toml:"depth"`
}

type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled" toml:"enabled"`
	Dir      string `mapstructure:"dir" toml:"dir"`
	RedisURL string `mapstructure:"redis_url" toml:"redis_url"`
	TTL      string `mapstructure:"ttl" toml:"ttl"`
}

// TTLDuration parses TTL. Check reports a bad value; here it falls back to
// DefaultTTL.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return DefaultTTL
	}
	return d
}

type RenderConfig struct {
	RankDir  string `mapstructure:"rankdir" toml:"rankdir"`
	DPI      int    `mapstructure:"dpi" toml:"dpi"`
	Detailed bool   `mapstructure:"detailed" toml:"detailed"`
}

// Options returns the node-link rendering options.
func (c RenderConfig) Options() nodelink.Options {
	return nodelink.Options{RankDir: c.RankDir, DPI: c.DPI, Detailed: c.Detailed}
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
}

// DefaultDatabase is the database of a standard project.
const DefaultDatabase = "odoodb"

// DefaultTTL is how long database feeds stay cached.
const DefaultTTL = 24 * time.Hour

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Database:  DefaultDatabase,
		Psql:      PsqlConfig{Command: feed.DefaultPsqlCommand},
		Marabunta: MarabuntaConfig{Command: marabunta.DefaultCommand, File: marabunta.DefaultFile},
		Addons:    AddonsConfig{Paths: slices.Clone(manifest.DefaultAddonsPaths), Depth: manifest.DefaultDepth},
		Cache:     CacheConfig{Enabled: true, TTL: DefaultTTL.String()},
		Render:    RenderConfig{RankDir: nodelink.DefaultRankDir},
		Log:       LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database", d.Database)
	v.SetDefault("psql.command", d.Psql.Command)
	v.SetDefault("marabunta.command", d.Marabunta.Command)
	v.SetDefault("marabunta.file", d.Marabunta.File)
	v.SetDefault("addons.paths", d.Addons.Paths)
	v.SetDefault("addons.depth", d.Addons.Depth)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("render.rankdir", d.Render.RankDir)
	v.SetDefault("render.dpi", d.Render.DPI)
	v.SetDefault("render.detailed", d.Render.Detailed)
	v.SetDefault("log.level", d.Log.Level)
}

// flagKeys binds command line flags to configuration keys.
var flagKeys = map[string]string{
	"database": "database",
	"psql":     "psql.command",
	"rankdir":  "render.rankdir",
	"dpi":      "render.dpi",
}

// Load reads configuration from path (or FileName in the working directory
// when path is empty), the environment and flags. A missing FileName is not
// an error; a missing explicit path is.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, odooerrors.Wrap(odooerrors.ErrCodeInvalidInput, err, "reading config")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, odooerrors.Wrap(odooerrors.ErrCodeInvalidInput, err, "unmarshalling config")
	}
	cfg.File = v.ConfigFileUsed()
	if flags != nil {
		if noCache, err := flags.GetBool("no-cache"); err == nil && noCache {
			cfg.Cache.Enabled = false
		}
	}
	return &cfg, nil
}

// Check returns the first setting odoomig cannot run with.
func (c *Config) Check() error {
	if err := odooerrors.ValidateDatabaseName(c.Database); err != nil {
		return err
	}
	if strings.TrimSpace(c.Psql.Command) == "" {
		return odooerrors.New(odooerrors.ErrCodeInvalidInput, "psql.command cannot be empty")
	}
	if !slices.Contains([]string{"LR", "RL", "TB", "BT"}, c.Render.RankDir) {
		return odooerrors.New(odooerrors.ErrCodeInvalidInput, "render.rankdir %q must be one of LR, RL, TB, BT", c.Render.RankDir)
	}
	if c.Addons.Depth < 0 {
		return odooerrors.New(odooerrors.ErrCodeInvalidInput, "addons.depth %d is negative", c.Addons.Depth)
	}
	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return odooerrors.Wrap(odooerrors.ErrCodeInvalidInput, err, "cache.ttl")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return odooerrors.Wrap(odooerrors.ErrCodeInvalidInput, err, "log.level")
	}
	return nil
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	missing := 0
	for _, p := range c.Addons.Paths {
		if _, err := os.Stat(p); err != nil {
			missing++
		}
	}
	if len(c.Addons.Paths) > 0 && missing == len(c.Addons.Paths) {
		warnings = append(warnings, "none of the addons paths exist, every module will be seen without code")
	}

	if c.Cache.Enabled && c.Cache.RedisURL != "" && c.Cache.Dir != "" {
		warnings = append(warnings, "cache.dir is ignored when cache.redis_url is set")
	}

	if c.Render.DPI < 0 || c.Render.DPI > 1200 {
		warnings = append(warnings, fmt.Sprintf("render.dpi %d is outside recommended range [0, 1200]", c.Render.DPI))
	}

	if !strings.Contains(c.Marabunta.Command, marabunta.DatabasePlaceholder) {
		warnings = append(warnings, fmt.Sprintf("marabunta.command has no %s placeholder, every phase migrates the same database", marabunta.DatabasePlaceholder))
	}

	return warnings
}

// Write saves cfg as TOML at path. An existing file is only replaced when
// force is set.
func Write(cfg Config, path string, force bool) error {
	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		if os.IsExist(err) {
			return odooerrors.New(odooerrors.ErrCodeInvalidPath, "%s already exists, use --force to overwrite", path)
		}
		return odooerrors.Wrap(odooerrors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := Encode(cfg, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes cfg as TOML.
func Encode(cfg Config, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
