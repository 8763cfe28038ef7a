package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/nicempc/internal/handler/api"
	"github.com/Alias1177/nicempc/internal/model"
)

// withApp loads config, wires the app and closes it after run
func withApp(cmd *cobra.Command, flags *rootFlags, run func(a *app) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, flags, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.close()
	return run(a)
}

func newEvaluateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [ticker...]",
		Short: "Score tickers and run the guard chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				if len(args) == 0 {
					args = []string{a.cfg.Market.Symbol}
				}

				results := make([]model.Evaluation, 0, len(args))
				for _, ticker := range args {
					ev, err := a.evaluate(cmd.Context(), ticker)
					if err != nil {
						return err
					}
					if a.json {
						results = append(results, ev)
						continue
					}
					a.console.PrintEvaluation(ev)
				}

				if a.json {
					return a.printJSON(results)
				}
				return nil
			})
		},
	}
}

func newBacktestCmd(flags *rootFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "backtest [ticker]",
		Short: "Replay the MA/RSI strategy over recent history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				ticker := a.cfg.Market.Symbol
				if len(args) == 1 {
					ticker = args[0]
				}
				if days > 0 {
					a.cfg.Backtest.Days = days
				}

				log.Info().Str("ticker", ticker).Int("days", a.cfg.Backtest.Days).Msg("Running backtesting...")
				res, err := a.backtest(cmd.Context(), ticker)
				if err != nil {
					return err
				}
				if a.json {
					return a.printJSON(res)
				}
				a.console.PrintBacktest(res)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "History length in days (overrides backtest.days)")
	return cmd
}

func newScreenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "screen",
		Short: "Rank the most liquid tickers by short-term momentum",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				s, err := a.newScreener()
				if err != nil {
					return err
				}
				rows, err := s.Rank(cmd.Context())
				if err != nil {
					return err
				}
				if a.json {
					return a.printJSON(rows)
				}
				a.console.PrintScreener(rows)
				return nil
			})
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				deps := api.Deps{
					Provider:   a.provider,
					Evaluator:  a.evaluator,
					Backtester: a.engine,
					Metrics:    a.metrics,
				}
				if a.store != nil {
					deps.Store = a.store
				}
				if s, err := a.newScreener(); err == nil {
					deps.Screener = s
				} else {
					log.Warn().Err(err).Msg("Screener route disabled")
				}

				srv := api.NewServer(api.NewHandler(deps), api.ServerOptions{
					Addr:         a.cfg.Server.Addr,
					ReadTimeout:  a.cfg.Server.ReadTimeout,
					WriteTimeout: a.cfg.Server.WriteTimeout,
					Gatherer:     a.registry,
				})
				return srv.Run(cmd.Context())
			})
		},
	}
}
