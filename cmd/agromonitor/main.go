package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"AgroMonitor/internal/catalog"
	"AgroMonitor/internal/collector"
	"AgroMonitor/internal/config"
	"AgroMonitor/internal/logging"
	"AgroMonitor/internal/metrics"
	"AgroMonitor/internal/scanner"
)

const appName = "agromonitor"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg(appName + " failed")
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Technical and fundamental scoring of agribusiness instruments",
		Long:          "AgroMonitor ranks Brazilian agribusiness equities, Fiagros, BDRs and commodity futures by technical and fundamental score.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", defaultConfigPath(), "Path to the YAML config file")

	rootCmd.AddCommand(newScanCmd(), newChartCmd(), newWatchCmd())
	return rootCmd
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// app bundles the engine built from configuration.
type app struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	scanner *scanner.Scanner
	logs    io.Closer
}

func (a *app) Close() error {
	return a.logs.Close()
}

// newApp loads configuration, applies flag overrides and wires the engine.
func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if f := cmd.Flags().Lookup("min-score"); f != nil && f.Changed {
		cfg.Scan.MinScore, _ = cmd.Flags().GetInt("min-score")
	}
	if f := cmd.Flags().Lookup("filter"); f != nil && f.Changed {
		cfg.Scan.Filter, _ = cmd.Flags().GetString("filter")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logs, err := logging.Setup(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, err
	}

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		if cat, err = catalog.Load(cfg.CatalogFile); err != nil {
			logs.Close()
			return nil, err
		}
	}

	var src collector.Source
	if cfg.DataSource.BaseURL != "" {
		src = collector.NewRESTSource(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.Fetch.Timeout)
	} else {
		src = collector.NewYahooSource(cfg.Proxy, cfg.Fetch.Timeout)
	}
	log.Info().Str("source", src.Name()).Int("instruments", cat.Len()).Msg("engine ready")

	m := metrics.New()
	fetcher := collector.NewResilientFetcher(src, collector.Options{
		Attempts:        cfg.Fetch.Attempts,
		Pauses:          cfg.Fetch.Pauses,
		MinBars:         cfg.Scan.MinBars,
		RateLimit:       cfg.Fetch.RateLimitRPS,
		RateBurst:       cfg.Fetch.RateBurst,
		BreakerFailures: cfg.Fetch.BreakerFailures,
		BreakerTimeout:  cfg.Fetch.BreakerTimeout,
	}, m)

	return &app{
		cfg:     cfg,
		metrics: m,
		scanner: scanner.New(cat, fetcher, m, cfg.Scan.Lookback),
		logs:    logs,
	}, nil
}

func (a *app) scanOptions() scanner.Options {
	return scanner.Options{MinScore: a.cfg.Scan.MinScore, Filter: a.cfg.Scan.Filter}
}
