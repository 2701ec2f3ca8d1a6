// Package config loads fbnative settings from YAML files and FBNATIVE_*
// environment variables.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/fbnative/arena"
	"github.com/wippyai/fbnative/errors"
	"github.com/wippyai/fbnative/loader"
	"github.com/wippyai/fbnative/registry"
	"github.com/wippyai/fbnative/xsqlda"
)

// EnvPrefix prefixes environment overrides, e.g. FBNATIVE_ARENA_CHUNK_SIZE.
const EnvPrefix = "FBNATIVE"

type Config struct {
	Library struct {
		Candidates []string `mapstructure:"candidates"`
		// Wasm, when set, loads the client from a WebAssembly module
		// instead of a shared library.
		Wasm string `mapstructure:"wasm"`
	} `mapstructure:"library"`

	Arena struct {
		ChunkSize int `mapstructure:"chunk_size"`
	} `mapstructure:"arena"`

	Registry struct {
		Growth        int  `mapstructure:"growth"`
		SingleLibrary bool `mapstructure:"single_library"`
	} `mapstructure:"registry"`

	Session struct {
		Dialect int `mapstructure:"dialect"`
	} `mapstructure:"session"`

	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("library.candidates", loader.DefaultCandidates())
	v.SetDefault("library.wasm", "")
	v.SetDefault("arena.chunk_size", arena.DefaultChunkSize)
	v.SetDefault("registry.growth", registry.DefaultGrowth)
	v.SetDefault("registry.single_library", false)
	v.SetDefault("session.dialect", xsqlda.Dialect3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() (*Config, error) {
	return decode(newViper())
}

// Load reads the file at path over the defaults. An empty path is the same
// as Default.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read config")
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindMalformed, err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	if len(c.Library.Candidates) == 0 && c.Library.Wasm == "" {
		return errors.InvalidInput(errors.PhaseConfig, []string{"library", "candidates"}, "no client library configured")
	}
	if c.Arena.ChunkSize < 0 || c.Arena.ChunkSize > arena.MaxAlloc {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("arena", "chunk_size").
			Value(c.Arena.ChunkSize).
			Detail("chunk size out of range").
			Build()
	}
	if c.Registry.Growth < 1 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("registry", "growth").
			Value(c.Registry.Growth).
			Detail("growth must be positive").
			Build()
	}
	if c.Session.Dialect != 1 && c.Session.Dialect != 3 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path("session", "dialect").
			Value(c.Session.Dialect).
			Detail("dialect must be 1 or 3").
			Build()
	}
	return nil
}

// NewLogger builds the zap logger described by the log section.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// RegistryOptions returns the registry options implied by the config.
func (c *Config) RegistryOptions(logger *zap.Logger) []registry.Option {
	opts := []registry.Option{registry.WithGrowth(c.Registry.Growth)}
	if logger != nil {
		opts = append(opts, registry.WithLogger(logger))
	}
	if c.Registry.SingleLibrary {
		opts = append(opts, registry.WithSingleLibrary())
	}
	return opts
}
