package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"incentive-engine/internal/aggregator"
	"incentive-engine/internal/cli"
	"incentive-engine/internal/config"
	"incentive-engine/internal/logging"
	"incentive-engine/internal/metrics"
	"incentive-engine/internal/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Service:     "incentive-engine",
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	policy := config.LoadTierPolicyOrDefault(cfg.TierPolicyFile, logger)

	clients := upstream.NewClients(cfg.Upstream, upstream.OptionsFromConfig(cfg.Upstream, m, logger))
	agg := aggregator.New(aggregator.Options{
		Accounts:   clients.Account,
		Dashboard:  clients.Dashboard,
		Incentives: clients.Incentive,
		Resellers:  clients.Reseller,
		Policy:     policy.Permissions(),
		Fallback: aggregator.Fallback{
			Target: policy.FallbackTarget,
			Ladder: policy.Ladder(),
		},
		Metrics: m,
		Logger:  logger,
	})

	logger.Debug("Upstream services configured",
		zap.String("account", cfg.Upstream.AccountURL),
		zap.String("dashboard", cfg.Upstream.DashboardURL),
		zap.String("incentive", cfg.Upstream.IncentiveURL),
		zap.String("reseller", cfg.Upstream.ResellerURL))

	app := &cli.App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Views:   agg,
	}
	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}
