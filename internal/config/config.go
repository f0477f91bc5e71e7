// Package config loads wt configuration from flags, environment, and
// an optional config file, in that order of precedence.
//
// The config file is looked up as .worktrack.yaml in the current
// directory and then in the home directory. Every key is also
// available as a WT_-prefixed environment variable (WT_DB, WT_ACTOR).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Defaults
const (
	DefaultDBFile = "worktrack.db"
	EnvPrefix     = "WT"
)

// Config is the resolved wt configuration.
type Config struct {
	// DBPath is the SQLite database path. ":memory:" is accepted.
	DBPath string `mapstructure:"db"`

	// ActorID identifies the acting user for every operation.
	ActorID string `mapstructure:"actor"`

	// JSON switches output to machine-readable JSON.
	JSON bool `mapstructure:"json"`

	// NoColor disables ANSI colors in output.
	NoColor bool `mapstructure:"no_color"`
}

// New returns a viper instance wired with defaults, env binding, and
// config file discovery. Callers bind their cobra flags onto it before
// calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("db", defaultDBPath())
	v.SetDefault("actor", "")
	v.SetDefault("json", false)
	v.SetDefault("no_color", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(".worktrack")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	return v
}

// Load reads the config file (when present) and unmarshals the final
// configuration. A missing config file is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func defaultDBPath() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".worktrack", DefaultDBFile)
	}
	return DefaultDBFile
}
