package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/nicempc/internal/config"
)

type rootFlags struct {
	configPath string
	demo       bool
	seed       int64
	jsonOutput bool
}

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "nicempc",
		Short: "Multi-agent market scoring with a pre-trade guard chain",
		Long: `nicempc scores a ticker with five independent agents, runs the result
through a five-phase guard chain, sizes the position with a capped Kelly
fraction and optionally asks a language model for a final verdict.

Example usage:
  nicempc evaluate BTC ETH          # score tickers from the configured provider
  nicempc backtest BTC --demo       # replay the strategy on synthetic data
  nicempc screen                    # rank the most liquid KRW tickers by momentum
  nicempc serve                     # HTTP API with /metrics`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to a YAML config file")
	pf.BoolVar(&flags.demo, "demo", false, "Use reproducible synthetic market data instead of a live provider")
	pf.Int64Var(&flags.seed, "seed", 42, "Seed for --demo data")
	pf.BoolVar(&flags.jsonOutput, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newEvaluateCmd(flags),
		newBacktestCmd(flags),
		newScreenCmd(flags),
		newServeCmd(flags),
	)
	return root
}

// loadConfig reads configuration and configures logging
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	setupLogging(cfg.Log.Level, cfg.Log.Format)
	printConfig(cfg, flags.demo)
	return cfg, nil
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel, format string) {
	if format != "json" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log.Logger = log.Output(output)
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config, demo bool) {
	log.Info().
		Bool("Demo", demo).
		Str("Provider", cfg.Market.Provider).
		Str("Symbol", cfg.Market.Symbol).
		Str("Interval", cfg.Market.Interval).
		Int("CandleCount", cfg.Market.CandleCount).
		Float64("MaxSpreadBps", cfg.Guard.MaxSpreadBps).
		Bool("VolatilityBlocking", cfg.Guard.VolatilityBlocking).
		Float64("WinRate", cfg.Sizing.WinRate).
		Float64("PayoffRatio", cfg.Sizing.PayoffRatio).
		Float64("MaxAllocationPct", cfg.Sizing.MaxAllocationPct).
		Bool("Synthesizer", cfg.OpenAI.Enabled()).
		Bool("Store", cfg.Store.Enabled).
		Bool("Telegram", cfg.Telegram.Enabled()).
		Msg("Configuration loaded")
}
