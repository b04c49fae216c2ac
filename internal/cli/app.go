package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-contentflow/internal/config"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/generate"
	"github.com/alnah/go-contentflow/internal/lang"
	"github.com/alnah/go-contentflow/internal/llm"
	"github.com/alnah/go-contentflow/internal/normalize"
	"github.com/alnah/go-contentflow/internal/recycle"
)

// app is the set of services a command runs with.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	language lang.Language
	calc     *cost.Calculator
	client   llm.Client // nil unless requested
	ledger   *cost.Ledger

	closeLedger func() error
}

// setup loads configuration and opens the services. The client is only
// built when withClient is set, so ledger-only commands run without an
// API key.
func setup(ctx context.Context, env *Env, withClient bool) (*app, error) {
	cfg, err := env.ConfigLoader.Load(env.ConfigFile)
	if err != nil {
		return nil, err
	}

	log, err := env.LoggerFactory.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	language, err := lang.Parse(cfg.App.Language)
	if err != nil {
		return nil, fmt.Errorf("app.language: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		language: language,
		calc:     cost.NewCalculator(cfg.PricingTable(), cost.WithClock(env.Now)),
	}

	if withClient {
		client, err := env.ClientFactory.NewClient(cfg, log)
		if err != nil {
			return nil, err
		}
		if !a.calc.Supports(client.Model()) {
			return nil, fmt.Errorf("model %q has no pricing (add pricing.%s.input/output): %w",
				client.Model(), client.Model(), cost.ErrUnknownModel)
		}
		a.client = client
	}

	ledger, closeLedger, err := env.LedgerFactory.NewLedger(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open cost ledger: %w", err)
	}
	a.ledger = ledger
	a.closeLedger = closeLedger

	return a, nil
}

// Close releases the ledger store and flushes the logger.
func (a *app) Close() {
	if a.closeLedger != nil {
		if err := a.closeLedger(); err != nil {
			a.log.Warn("failed to close cost ledger", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func (a *app) generator() *generate.Generator {
	return generate.New(a.client,
		generate.WithCalculator(a.calc),
		generate.WithLedger(a.ledger),
		generate.WithLanguage(a.language),
		generate.WithLogger(a.log))
}

func (a *app) recycler() *recycle.Service {
	return recycle.New(a.client,
		recycle.WithCalculator(a.calc),
		recycle.WithLedger(a.ledger),
		recycle.WithLanguage(a.language),
		recycle.WithLogger(a.log),
		recycle.WithNormalizer(normalize.New(
			normalize.WithLogger(a.log),
			normalize.WithHashtagExtraction(a.cfg.Recycle.ExtractHashtags))))
}
