package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/index"
	"github.com/matzehuels/distcache/pkg/translate"
)

const (
	// AppName is used for the config directory and the environment prefix.
	AppName = "distcache"
	// FileName is the config file name inside [Dir].
	FileName = "config.toml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DISTCACHE"
)

// Keys understood by the loader.
const (
	KeyCacheDir     = "cache_dir"
	KeyPlatform     = "platform"
	KeyPython       = "python"
	KeyConnTimeout  = "conn_timeout"
	KeyIndexURL     = "index.url"
	KeyIndexTTL     = "index.ttl"
	KeyBuildCommand = "build.command"
	KeyStrictExempt = "build.strict_exempt"
)

// Config is the resolved configuration.
type Config struct {
	CacheDir    string        `mapstructure:"cache_dir"`
	Platform    string        `mapstructure:"platform"`
	Python      string        `mapstructure:"python"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout"`
	Index       Index         `mapstructure:"index"`
	Build       Build         `mapstructure:"build"`
}

// Index configures the package index client.
type Index struct {
	URL string        `mapstructure:"url"`
	TTL time.Duration `mapstructure:"ttl"`
}

// Build configures source builds. An empty Command selects the
// pyproject tree builder.
type Build struct {
	Command      []string `mapstructure:"command"`
	StrictExempt []string `mapstructure:"strict_exempt"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CacheDir:    defaultCacheDir(),
		ConnTimeout: 60 * time.Second,
		Index: Index{
			URL: index.DefaultURL,
			TTL: 24 * time.Hour,
		},
		Build: Build{
			StrictExempt: append([]string(nil), translate.DefaultStrictExempt...),
		},
	}
}

// Dir returns the configuration directory: $XDG_CONFIG_HOME/distcache
// (or ~/.config/distcache) on Unix and %APPDATA%\distcache on Windows.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// defaultCacheDir is the install cache under the user cache directory.
// An empty result makes translators fall back to a temporary cache.
func defaultCacheDir() string {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName, "eggs")
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, AppName, "eggs")
}

// Loader layers defaults, file, environment and flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment binding in place.
func NewLoader() *Loader {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyCacheDir, d.CacheDir)
	v.SetDefault(KeyPlatform, d.Platform)
	v.SetDefault(KeyPython, d.Python)
	v.SetDefault(KeyConnTimeout, d.ConnTimeout)
	v.SetDefault(KeyIndexURL, d.Index.URL)
	v.SetDefault(KeyIndexTTL, d.Index.TTL)
	v.SetDefault(KeyBuildCommand, d.Build.Command)
	v.SetDefault(KeyStrictExempt, d.Build.StrictExempt)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.New(errors.ErrCodeInternal, "no flag for config key %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file and returns the merged configuration. An
// explicit path must exist; without one the file in [Dir] is optional.
// It returns the path of the file that was read, or "" when none was.
func (l *Loader) Load(path string) (Config, string, error) {
	resolved := ""
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", path)
		}
		resolved = path
	} else if dir, err := Dir(); err == nil {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			resolved = candidate
		} else if !stderrors.Is(err, fs.ErrNotExist) {
			return Config{}, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file %s", candidate)
		}
	}

	if resolved != "" {
		l.v.SetConfigFile(resolved)
		l.v.SetConfigType("toml")
		if err := l.v.ReadInConfig(); err != nil {
			return Config{}, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", resolved)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, resolved, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	if c.ConnTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative, got %s", KeyConnTimeout, c.ConnTimeout)
	}
	if c.Index.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "%s must not be negative, got %s", KeyIndexTTL, c.Index.TTL)
	}
	if c.Index.URL != "" {
		if err := errors.ValidateURL(c.Index.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", KeyIndexURL)
		}
	}
	if len(c.Build.Command) > 0 && strings.TrimSpace(c.Build.Command[0]) == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "%s has an empty program", KeyBuildCommand)
	}
	return nil
}
