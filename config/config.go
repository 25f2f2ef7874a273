package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultAppName = "smj-merge"
	EnvPrefix      = "SMJ"
)

// Config stores all configuration of the application.
// The values are read by viper from flags, environment variables or a config file.
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Index   IndexConfig   `mapstructure:"index"`
	View    ViewConfig    `mapstructure:"view"`
	Log     LogConfig     `mapstructure:"log"`
	Output  OutputConfig  `mapstructure:"output"`
}

type LibraryConfig struct {
	Location string `mapstructure:"location"`
	Database string `mapstructure:"database"`
	// OverlayIndex is a Bleve index whose tracks are merged over the library.
	OverlayIndex string `mapstructure:"overlay_index"`
	// DocumentBackend makes the Bleve index the primary store.
	DocumentBackend bool `mapstructure:"document_backend"`
}

type IndexConfig struct {
	Workers int  `mapstructure:"workers"`
	Serial  bool `mapstructure:"serial"`
}

type ViewConfig struct {
	Kind string `mapstructure:"kind"`
	Sort string `mapstructure:"sort"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type OutputConfig struct {
	JSON      bool `mapstructure:"json"`
	ShowPaths bool `mapstructure:"show_paths"`
	Indent    int  `mapstructure:"indent"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"location":             "library.location",
	"database":             "library.database",
	"overlay-index":        "library.overlay_index",
	"use-document-backend": "library.document_backend",
	"workers":              "index.workers",
	"force-serial":         "index.serial",
	"kind":                 "view.kind",
	"sort":                 "view.sort",
	"log-level":            "log.level",
	"json":                 "output.json",
	"show-paths":           "output.show_paths",
	"indent":               "output.indent",
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
		return os.TempDir()
	}
	return home
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	home := homeDir()
	v.SetDefault("library.location", filepath.Join(home, "Music"))
	v.SetDefault("library.database", filepath.Join(home, ".smj7.sqlite"))
	v.SetDefault("library.overlay_index", "")
	v.SetDefault("library.document_backend", false)
	v.SetDefault("index.workers", 0)
	v.SetDefault("index.serial", false)
	v.SetDefault("view.kind", "tracks")
	v.SetDefault("view.sort", "name")
	v.SetDefault("log.level", "info")
	v.SetDefault("output.json", false)
	v.SetDefault("output.show_paths", false)
	v.SetDefault("output.indent", 2)
}

// LoadConfig reads configuration from file, environment variables and flags.
// configPath may be empty, in which case config.yaml is looked up in the
// working directory and ~/.config/smj-merge. flags may be nil.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(homeDir(), ".config", DefaultAppName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.Library.Location = expandHome(cfg.Library.Location)
	cfg.Library.Database = expandHome(cfg.Library.Database)
	cfg.Library.OverlayIndex = expandHome(cfg.Library.OverlayIndex)
	return &cfg, nil
}

// expandHome resolves a leading ~ and makes the path absolute.
func expandHome(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "~") {
		path = filepath.Join(homeDir(), path[1:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
