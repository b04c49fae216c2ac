// Package config loads settings from defaults, an optional YAML file and
// the environment.
//
// Precedence, highest first: environment (CONTENTFLOW_<SECTION>_<KEY>, plus
// OPENAI_API_KEY), the config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/alnah/go-contentflow/internal/cost"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CONTENTFLOW"

// Profiles selected by app.env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Ledger store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the complete application configuration.
type Config struct {
	App     AppConfig               `mapstructure:"app"`
	Server  ServerConfig            `mapstructure:"server"`
	LLM     LLMConfig               `mapstructure:"llm"`
	Cost    CostConfig              `mapstructure:"cost"`
	Redis   RedisConfig             `mapstructure:"redis"`
	Log     LogConfig               `mapstructure:"log"`
	Recycle RecycleConfig           `mapstructure:"recycle"`
	Pricing map[string]cost.Pricing `mapstructure:"pricing"`
}

// AppConfig selects the profile and output language.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Language string `mapstructure:"language"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LLMConfig configures the completion client.
type LLMConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	ModelDev   string        `mapstructure:"model_dev"`
	ModelProd  string        `mapstructure:"model_prod"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// CostConfig configures the ledger. Zero thresholds fall back to the
// profile defaults.
type CostConfig struct {
	Store     string        `mapstructure:"store"`
	File      string        `mapstructure:"file"`
	Timezone  string        `mapstructure:"timezone"`
	Warning   float64       `mapstructure:"warning"`
	Danger    float64       `mapstructure:"danger"`
	Retention time.Duration `mapstructure:"retention"`
}

// RedisConfig configures the Redis ledger store.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecycleConfig tunes the recycling pipeline.
type RecycleConfig struct {
	ExtractHashtags bool `mapstructure:"extract_hashtags"`
}

// IsDevelopment reports whether the development profile is active.
func (c Config) IsDevelopment() bool {
	return c.App.Env == EnvDevelopment
}

// Model returns the model for the active profile.
func (c Config) Model() string {
	if c.IsDevelopment() {
		return c.LLM.ModelDev
	}
	return c.LLM.ModelProd
}

// Thresholds returns the alert thresholds for the active profile,
// overridden by cost.warning and cost.danger when set.
func (c Config) Thresholds() cost.Thresholds {
	t := cost.DefaultThresholds
	if c.IsDevelopment() {
		t = cost.DevelopmentThresholds
	}
	if c.Cost.Warning > 0 {
		t.Warning = c.Cost.Warning
	}
	if c.Cost.Danger > 0 {
		t.Danger = c.Cost.Danger
	}
	return t
}

// PricingTable returns the built-in table with configured entries merged in.
func (c Config) PricingTable() cost.Table {
	table := cost.DefaultTable()
	for model, p := range c.Pricing {
		if p.Name == "" {
			p.Name = model
		}
		table[model] = p
	}
	return table
}

// Location returns the time zone that defines ledger days.
func (c Config) Location() (*time.Location, error) {
	if c.Cost.Timezone == "" || strings.EqualFold(c.Cost.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Cost.Timezone)
	if err != nil {
		return nil, fmt.Errorf("cost.timezone: %w", err)
	}
	return loc, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs []error
	if c.App.Env != EnvDevelopment && c.App.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("app.env %q: want %s or %s", c.App.Env, EnvDevelopment, EnvProduction))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Cost.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("cost.store %q: want %s, %s or %s", c.Cost.Store, StoreMemory, StoreFile, StoreRedis))
	}
	if c.Model() == "" {
		errs = append(errs, errors.New("no model configured for the active profile"))
	}
	if t := c.Thresholds(); t.Warning >= t.Danger {
		errs = append(errs, fmt.Errorf("cost.warning %g must be below cost.danger %g", t.Warning, t.Danger))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries %d is negative", c.LLM.MaxRetries))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ErrInvalid indicates a configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Dir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/contentflow.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "contentflow"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "contentflow"), nil
}

// Path returns the config file path.
func Path() (string, error) {
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.yaml"), nil
}

// Load reads defaults, the config file (if present) and the environment.
// An explicit file must exist; the default file is optional.
func Load(file string) (Config, error) {
	v, err := newViper(file)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func newViper(file string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key: %w", err)
	}

	optional := file == ""
	if optional {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		file = p
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
	}
	return v, nil
}

// setDefaults registers every key so environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", EnvProduction)
	v.SetDefault("app.language", "es")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model_dev", "gpt-4o-mini")
	v.SetDefault("llm.model_prod", "gpt-4o-mini")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 0)

	v.SetDefault("cost.store", StoreFile)
	v.SetDefault("cost.file", "")
	v.SetDefault("cost.timezone", "local")
	v.SetDefault("cost.warning", 0)
	v.SetDefault("cost.danger", 0)
	v.SetDefault("cost.retention", "0s")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", cost.DefaultKeyPrefix)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("recycle.extract_hashtags", false)
}

// LedgerFile returns cost.file, defaulting to costs.json in the config dir.
func (c Config) LedgerFile() (string, error) {
	if c.Cost.File != "" {
		return c.Cost.File, nil
	}
	d, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "costs.json"), nil
}
