package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cleared-dev/stockval/internal/accounts"
	"github.com/cleared-dev/stockval/internal/config"
	"github.com/cleared-dev/stockval/internal/kvstore"
	"github.com/cleared-dev/stockval/internal/logger"
	"github.com/cleared-dev/stockval/internal/pricelist"
	"github.com/cleared-dev/stockval/internal/runlog"
	"github.com/cleared-dev/stockval/internal/valuation"
	"github.com/cleared-dev/stockval/internal/wizardapi"
)

// project is an opened stockval project directory.
type project struct {
	dir    string
	cfg    *config.Config
	logger *zap.Logger
	store  kvstore.Store
	prices *pricelist.Service
}

// openProject loads config, logger and store for the project in opts.dir.
// With quiet set and no --verbose, only warnings are logged.
func openProject(ctx context.Context, opts *rootOptions, quiet bool) (*project, error) {
	dir, err := filepath.Abs(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no %s in %s; run `stockval init` first", config.FileName, dir)
		}
		return nil, err
	}
	envFile := opts.envFile
	if envFile == "" {
		envFile = filepath.Join(dir, ".env")
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Log.Level
	if quiet && !opts.verbose {
		level = "warn"
	}
	log, err := logger.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	store, err := kvstore.Open(ctx, cfg.Store, dir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return &project{
		dir:    dir,
		cfg:    cfg,
		logger: log,
		store:  store,
		prices: pricelist.NewService(store, cfg.Valuation.StrictCSV, logger.Named(log, "pricelist")),
	}, nil
}

func (p *project) Close() {
	if err := p.store.Close(); err != nil {
		p.logger.Warn("closing store", zap.Error(err))
	}
	_ = p.logger.Sync()
}

func (p *project) path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

// wizardClient returns nil when no wizard API is configured.
func (p *project) wizardClient() (*wizardapi.Client, error) {
	c, err := wizardapi.NewClient(p.cfg.WizardAPI)
	if errors.Is(err, wizardapi.ErrDisabled) {
		return nil, nil
	}
	return c, err
}

// chart resolves the account chart: an explicit file, then the store's
// accounts from the wizard API, then accounts.csv in the project. A nil
// chart means any account ID is accepted.
func (p *project) chart(ctx context.Context, file string) (*accounts.Service, error) {
	if file != "" {
		return accounts.LoadFile(file)
	}
	client, err := p.wizardClient()
	if err != nil {
		return nil, err
	}
	if client != nil && p.cfg.Business.StoreID != 0 {
		accts, err := client.GetStoreAccounts(ctx, p.cfg.Business.StoreID)
		if err != nil {
			return nil, err
		}
		return accounts.NewService(accts), nil
	}
	local := filepath.Join(p.dir, accounts.FileName)
	if _, err := os.Stat(local); err == nil {
		return accounts.LoadFile(local)
	}
	return nil, nil
}

func (p *project) helperOptions(chart *accounts.Service) []valuation.Option {
	opts := []valuation.Option{
		valuation.WithLogger(logger.Named(p.logger, "valuation")),
		valuation.WithStrictCSV(p.cfg.Valuation.StrictCSV),
		valuation.WithSummary(valuation.SummaryOptions{
			Currency:   p.cfg.Valuation.Currency,
			SampleSize: p.cfg.Valuation.SampleSize,
		}),
	}
	if chart != nil {
		opts = append(opts, valuation.WithAccounts(chart))
	}
	if p.cfg.Log.RunLog != "" {
		opts = append(opts, valuation.WithRecorder(runlog.NewFile(p.path(p.cfg.Log.RunLog))))
	}
	return opts
}
