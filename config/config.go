// Package config loads lending-library settings from a YAML file, the
// environment and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. LENDING_STORE_PATH.
const EnvPrefix = "LENDING"

// Config is the full settings tree.
type Config struct {
	Store StoreConfig `mapstructure:"store" yaml:"store"`
	IDs   IDConfig    `mapstructure:"ids" yaml:"ids"`
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
}

// StoreConfig selects the table backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // sqlite or yaml
	Path   string `mapstructure:"path" yaml:"path"`     // database file or table directory
}

// IDConfig shapes the generated book and member ids.
type IDConfig struct {
	BookPrefix   string `mapstructure:"book_prefix" yaml:"book_prefix"`
	MemberPrefix string `mapstructure:"member_prefix" yaml:"member_prefix"`
	Width        int    `mapstructure:"width" yaml:"width"`
}

// AdminConfig gates the approval commands.
type AdminConfig struct {
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash,omitempty"`
}

// LogConfig controls the structured log written to stderr.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lending-library", "config.yml")
}

func defaultStorePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "lending-library", "library.db")
}

// Load reads the config file at path, or the one named by LENDING_CONFIG,
// or the default path. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("ids.book_prefix", "GDL")
	v.SetDefault("ids.member_prefix", "MEM")
	v.SetDefault("ids.width", 3)
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Store.Path = ExpandHome(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the library cannot run with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Store.Driver) {
	case "sqlite", "yaml":
	default:
		return fmt.Errorf("store.driver must be sqlite or yaml, got %q", c.Store.Driver)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is empty")
	}
	if c.IDs.Width < 1 {
		return fmt.Errorf("ids.width must be at least 1, got %d", c.IDs.Width)
	}
	if c.IDs.BookPrefix == "" || c.IDs.MemberPrefix == "" {
		return fmt.Errorf("id prefixes must not be empty")
	}
	if strings.EqualFold(c.IDs.BookPrefix, c.IDs.MemberPrefix) {
		return fmt.Errorf("book and member id prefixes must differ")
	}
	return nil
}

// Save writes the config as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(cfg)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
