package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/config"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/logging"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have working defaults via DefaultEnv(). Tests override specific
// fields using the With* options or by building an Env directly.
type Env struct {
	// I/O and environment
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// ConfigFile is an explicit config path (--config). Empty means the
	// default location, which may be absent.
	ConfigFile string

	// Factories for domain objects
	ConfigLoader  ConfigLoader
	ClientFactory ClientFactory
	LedgerFactory LedgerFactory
	LoggerFactory LoggerFactory
}

// ConfigLoader loads configuration.
type ConfigLoader interface {
	Load(file string) (config.Config, error)
}

// ClientFactory creates the completion client for the active profile.
type ClientFactory interface {
	NewClient(cfg config.Config, log *zap.Logger) (llm.Client, error)
}

// LedgerFactory opens the cost ledger. The returned close func releases
// the store (a Redis connection, for instance).
type LedgerFactory interface {
	NewLedger(ctx context.Context, cfg config.Config) (*cost.Ledger, func() error, error)
}

// LoggerFactory builds the application logger.
type LoggerFactory interface {
	NewLogger(cfg config.LogConfig) (*zap.Logger, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) {
		e.Stdin = r
	}
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithClientFactory sets the client factory.
func WithClientFactory(f ClientFactory) EnvOption {
	return func(e *Env) {
		e.ClientFactory = f
	}
}

// WithLedgerFactory sets the ledger factory.
func WithLedgerFactory(f LedgerFactory) EnvOption {
	return func(e *Env) {
		e.LedgerFactory = f
	}
}

// WithLoggerFactory sets the logger factory.
func WithLoggerFactory(f LoggerFactory) EnvOption {
	return func(e *Env) {
		e.LoggerFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Now:           time.Now,
		ConfigLoader:  &defaultConfigLoader{},
		ClientFactory: &defaultClientFactory{},
		LedgerFactory: &defaultLedgerFactory{},
		LoggerFactory: &defaultLoggerFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load(file string) (config.Config, error) {
	cfg, err := config.Load(file)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(cfg config.Config, log *zap.Logger) (llm.Client, error) {
	if cfg.LLM.APIKey == "" {
		return nil, ErrAPIKeyMissing
	}
	opts := []llm.Option{
		llm.WithModel(cfg.Model()),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithLogger(log),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLM.BaseURL))
	}
	c, err := llm.NewOpenAIClient(cfg.LLM.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

type defaultLedgerFactory struct{}

func (defaultLedgerFactory) NewLedger(ctx context.Context, cfg config.Config) (*cost.Ledger, func() error, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }

	var store cost.Store
	closeFn := noop
	switch cfg.Cost.Store {
	case config.StoreMemory:
		store = cost.NewMemoryStore()
	case config.StoreFile:
		path, err := cfg.LedgerFile()
		if err != nil {
			return nil, nil, err
		}
		store = cost.NewFileStore(path)
	case config.StoreRedis:
		rdb, err := cost.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		store = cost.NewRedisStore(rdb,
			cost.WithKeyPrefix(cfg.Redis.KeyPrefix),
			cost.WithRetention(cfg.Cost.Retention))
		closeFn = rdb.Close
	default:
		return nil, nil, fmt.Errorf("cost.store %q: %w", cfg.Cost.Store, config.ErrInvalid)
	}

	ledger := cost.NewLedger(store,
		cost.WithLocation(loc),
		cost.WithThresholds(cfg.Thresholds()))
	return ledger, closeFn, nil
}

type defaultLoggerFactory struct{}

func (defaultLoggerFactory) NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logging.New(cfg.Level, cfg.Format)
}

// Compile-time interface verification.
var (
	_ ConfigLoader  = (*defaultConfigLoader)(nil)
	_ ClientFactory = (*defaultClientFactory)(nil)
	_ LedgerFactory = (*defaultLedgerFactory)(nil)
	_ LoggerFactory = (*defaultLoggerFactory)(nil)
)
