// Package cli implements the distcache command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/distcache/internal/config"
	"github.com/matzehuels/distcache/pkg/buildinfo"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/fetch"
	"github.com/matzehuels/distcache/pkg/httputil"
	"github.com/matzehuels/distcache/pkg/index"
	"github.com/matzehuels/distcache/pkg/install"
	"github.com/matzehuels/distcache/pkg/translate"
)

const appName = "distcache"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	loader     *config.Loader
	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		loader: config.NewLoader(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// Configuration is loaded once, before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "distcache resolves package links into installable distributions",
		Long:         `distcache turns package links (source archives or prebuilt eggs) into cached, normalized distributions by trying a chain of translation strategies.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/distcache/config.toml)")
	flags.String("cache-dir", "", "install cache directory")
	flags.String("platform", "", "target platform (default: this host)")
	flags.String("python", "", "target interpreter version (default: probed python3)")
	flags.Duration("timeout", 0, "per-fetch connection timeout")

	c.bind(config.KeyCacheDir, root, "cache-dir")
	c.bind(config.KeyPlatform, root, "platform")
	c.bind(config.KeyPython, root, "python")
	c.bind(config.KeyConnTimeout, root, "timeout")

	root.AddCommand(c.translateCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// bind ties a persistent flag to a config key. Flags are registered just
// above, so a failure here is a programming error.
func (c *CLI) bind(key string, cmd *cobra.Command, name string) {
	if err := c.loader.BindFlag(key, cmd.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

func (c *CLI) loadConfig() error {
	cfg, path, err := c.loader.Load(c.configPath)
	if err != nil {
		return err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.cfg = cfg
	c.installHooks()
	return nil
}

// =============================================================================
// Component Factories
// =============================================================================

// translateOptions maps the loaded configuration onto translator options.
func (c *CLI) translateOptions() translate.Options {
	opts := translate.Options{
		CacheDir:     c.cfg.CacheDir,
		Platform:     c.cfg.Platform,
		Python:       c.cfg.Python,
		ConnTimeout:  c.cfg.ConnTimeout,
		StrictExempt: c.cfg.Build.StrictExempt,
		Logger:       c.Logger,
		Fetcher: fetch.New(fetch.Options{
			Headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
			Logger:  c.Logger,
		}),
	}
	if len(c.cfg.Build.Command) > 0 {
		opts.Builder = &install.Command{Args: c.cfg.Build.Command, Logger: c.Logger}
	}
	return opts
}

func (c *CLI) newChain() (*translate.Chain, error) {
	return translate.Default(c.translateOptions())
}

// newIndex creates an index client. The response cache is skipped when
// noCache is set or cannot be created.
func (c *CLI) newIndex(noCache bool) *index.Client {
	opts := index.Options{
		BaseURL:   c.cfg.Index.URL,
		UserAgent: buildinfo.UserAgent(),
		Logger:    c.Logger,
	}
	if !noCache {
		rc, err := httputil.NewCache("", c.cfg.Index.TTL)
		if err != nil {
			c.Logger.Warn("response cache disabled", "error", err)
		} else {
			opts.Cache = rc
		}
	}
	return index.New(opts)
}

// installCacheDir returns the configured install cache, refusing the
// temporary fallback for commands that inspect or clear it.
func (c *CLI) installCacheDir() (string, error) {
	if c.cfg.CacheDir == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "no install cache directory configured (set cache_dir or --cache-dir)")
	}
	return c.cfg.CacheDir, nil
}
