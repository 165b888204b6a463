package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/goliatone/go-formforge/pkg/store"
)

// EnvPrefix is prepended to every environment override, e.g.
// FORMFORGE_STORE_DRIVER.
const EnvPrefix = "FORMFORGE"

// Setting keys.
const (
	KeyWorkspace   = "workspace"
	KeyStoreDriver = "store.driver"
	KeyStorePath   = "store.path"
	KeyLogLevel    = "log.level"
	KeyLogDev      = "log.dev"
)

// DataDir is the directory inside the workspace holding the form database.
const DataDir = ".formforge"

// Config is the resolved runtime configuration.
type Config struct {
	Workspace string
	Store     store.Config
	Log       Log
}

// Log configures the process logger.
type Log struct {
	Level string
	Dev   bool
}

// New returns a viper instance with defaults and FORMFORGE_* environment
// overrides wired in.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyWorkspace, ".")
	v.SetDefault(KeyStoreDriver, store.DriverSQLite)
	v.SetDefault(KeyStorePath, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogDev, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional formforge.yaml from the workspace and resolves the
// final configuration. Flags must already be bound to v.
func Load(v *viper.Viper) (Config, error) {
	workspace := v.GetString(KeyWorkspace)
	if workspace == "" {
		workspace = "."
	}

	v.SetConfigName("formforge")
	v.SetConfigType("yaml")
	v.AddConfigPath(workspace)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg := Config{
		Workspace: workspace,
		Store: store.Config{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreDriver))),
			Path:   v.GetString(KeyStorePath),
		},
		Log: Log{
			Level: v.GetString(KeyLogLevel),
			Dev:   v.GetBool(KeyLogDev),
		},
	}

	switch cfg.Store.Driver {
	case store.DriverMemory:
	case store.DriverSQLite, store.DriverBolt:
		if cfg.Store.Path == "" {
			cfg.Store.Path = DefaultStorePath(workspace, cfg.Store.Driver)
		} else if !filepath.IsAbs(cfg.Store.Path) {
			cfg.Store.Path = filepath.Join(workspace, cfg.Store.Path)
		}
	default:
		return Config{}, fmt.Errorf("config: %s must be one of memory, sqlite, bolt; got %q", KeyStoreDriver, cfg.Store.Driver)
	}
	return cfg, nil
}

// DefaultStorePath is where a file-backed driver keeps its database when no
// path is configured.
func DefaultStorePath(workspace, driver string) string {
	name := "forms.db"
	if driver == store.DriverBolt {
		name = "forms.bolt"
	}
	return filepath.Join(workspace, DataDir, name)
}
