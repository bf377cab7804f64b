package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockhistory/internal/alphavantage"
	"stockhistory/internal/config"
	"stockhistory/internal/coordinator"
	"stockhistory/internal/fetcher"
	"stockhistory/internal/logging"
	"stockhistory/internal/render"
	"stockhistory/internal/yahoo"
)

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "stockhistory [flags] SYMBOL [SYMBOL...]",
		Short: "Print daily closing-price history for stock tickers",
		Long: `stockhistory fetches daily closing prices for each ticker over a
relative period (1d 5d 1mo 3mo 6mo 1y 2y 5y 10y ytd max) and prints them
as date/close records.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml or $HOME/.stockhistory/config.yaml)")
	flags.StringP("period", "p", fetcher.DefaultPeriod, "history range understood by the provider")
	flags.String("provider", config.ProviderYahoo, "market-data provider (yahoo or alphavantage)")
	flags.StringP("format", "f", string(render.FormatJSON), "output format (json or csv)")
	flags.Duration("timeout", fetcher.DefaultTimeout, "deadline for the whole run")
	flags.Bool("adjusted", true, "use split and dividend adjusted closes when available")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func run(parent context.Context, cfg *config.Config, symbols []string, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Warn("received interrupt signal, cancelling requests")
			cancel()
		case <-ctx.Done():
		}
	}()

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	source, err := newSource(cfg, logger)
	if err != nil {
		return err
	}
	historyFetcher := fetcher.New(source, fetcher.WithAdjustedClose(cfg.Adjusted))

	for i, s := range symbols {
		symbols[i] = strings.TrimSpace(s)
	}

	// The provider has no deadline of its own
	fetchCtx, fetchCancel := context.WithTimeout(ctx, cfg.Timeout)
	defer fetchCancel()

	logger.Debug("fetching history",
		zap.Strings("symbols", symbols),
		zap.String("period", cfg.Period),
		zap.String("provider", cfg.Provider))

	coord := coordinator.New(historyFetcher, cfg.Period, out, format, logger)
	return coord.Run(fetchCtx, symbols)
}

func newSource(cfg *config.Config, logger *zap.Logger) (fetcher.Source, error) {
	switch cfg.Provider {
	case config.ProviderYahoo:
		return yahoo.NewClient(cfg.YahooBaseURL,
			yahoo.WithTimeout(cfg.Timeout),
			yahoo.WithUserAgent(cfg.UserAgent),
			yahoo.WithLogger(logger)), nil
	case config.ProviderAlphaVantage:
		return alphavantage.NewHistoryClient(cfg.AlphavantageAPIKey, cfg.AlphavantageBaseURL,
			alphavantage.WithTimeout(cfg.Timeout),
			alphavantage.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}
