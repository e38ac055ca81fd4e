// Package config loads nepatran settings from flags, .nepatran.yaml, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/valpere/nepatran/internal"
	"github.com/valpere/nepatran/internal/translator"
)

const (
	EnvPrefix  = "NEPATRAN"
	ConfigName = ".nepatran"
)

// Cache and debug sink backends.
const (
	BackendCSV    = "csv"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

type Config struct {
	Model    ModelConfig              `mapstructure:"model"`
	Pipeline PipelineConfig           `mapstructure:"pipeline"`
	Cache    CacheConfig              `mapstructure:"cache"`
	Debug    DebugConfig              `mapstructure:"debug"`
	Breaker  translator.BreakerConfig `mapstructure:"breaker"`
	Log      LogConfig                `mapstructure:"log"`
}

// ModelConfig selects the translation backend and carries the settings
// passed to it on every call.
type ModelConfig struct {
	Backend                  string `mapstructure:"backend"`
	translator.ServiceConfig `mapstructure:",squash"`
}

type PipelineConfig struct {
	Workers       int    `mapstructure:"workers"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	MaxUnitRunes  int    `mapstructure:"max_unit_runes"`
	Context       string `mapstructure:"context"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	CSVPath string `mapstructure:"csv_path"`
	DBPath  string `mapstructure:"db_path"`
}

type DebugConfig struct {
	Backend  string `mapstructure:"backend"`
	JSONPath string `mapstructure:"json_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Environment names kept from the original deployment. They are read
// without the NEPATRAN_ prefix.
var legacyEnv = map[string]string{
	"cache.csv_path":  "CACHE_CSV",
	"debug.json_path": "NLLB_JSON",
	"model.name":      "TRANSLATION_MODEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.backend", "nllb")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.beam_size", translator.DefaultBeamSize)
	v.SetDefault("model.credentials", "")
	v.SetDefault("model.project_id", "")

	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("pipeline.rate_per_minute", 0)
	v.SetDefault("pipeline.max_unit_runes", 400)
	v.SetDefault("pipeline.context", internal.ContextAnswer)

	v.SetDefault("cache.backend", BackendCSV)
	v.SetDefault("cache.csv_path", "./data/translation_cache.csv")
	v.SetDefault("cache.db_path", "./data/nepatran.db")

	v.SetDefault("debug.backend", BackendJSON)
	v.SetDefault("debug.json_path", "./data/nllb_debug.json")

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults, the config file search path
// and environment bindings in place. cfgFile overrides the search.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(ConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		// BindEnv only errors without a key.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// ReadFile reads the config file if there is one. A missing file in the
// search path is not an error; a missing explicit file is.
func ReadFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("failed to read config: %w", err)
}

// LoadDotEnv exports the variables of a .env file into the process
// environment without overriding ones already set. A missing file is
// ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load decodes v into a Config and checks the enumerated settings.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(translator.Backends, c.Model.Backend) {
		return fmt.Errorf("model.backend: unknown backend %q (want one of %v)", c.Model.Backend, translator.Backends)
	}
	if !slices.Contains([]string{BackendCSV, BackendSQLite, BackendNone}, c.Cache.Backend) {
		return fmt.Errorf("cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if !slices.Contains([]string{BackendJSON, BackendSQLite, BackendNone}, c.Debug.Backend) {
		return fmt.Errorf("debug.backend: unknown backend %q", c.Debug.Backend)
	}
	if c.Pipeline.Context != internal.ContextAnswer && c.Pipeline.Context != internal.ContextQuestion {
		return fmt.Errorf("pipeline.context: must be %q or %q, got %q", internal.ContextAnswer, internal.ContextQuestion, c.Pipeline.Context)
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline.workers: must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Model.BeamSize < 1 {
		return fmt.Errorf("model.beam_size: must be at least 1, got %d", c.Model.BeamSize)
	}
	return nil
}
