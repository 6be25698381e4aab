package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"solana-revival-lab/internal/domain"
	"solana-revival-lab/internal/orchestrator"
	"solana-revival-lab/internal/storage/migrations"
	pgstore "solana-revival-lab/internal/storage/postgres"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery, scoring and entry pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				res, err := a.scan(ctx)
				if err != nil {
					return err
				}
				printRunResult(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func newPortfolioCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Print the portfolio summary and open positions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(_ context.Context, a *app) error {
				printPortfolio(cmd.OutOrStdout(), a.manager.Summary(), a.manager.OpenPositions())
				return nil
			})
		},
	}
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the performance report and CSV exports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				r, err := a.reportGenerator().WriteFiles(ctx, outDir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "report written to %s (%d closed trades, return %.2f%%)\n",
					outDir, r.Performance.TotalTrades, r.ReturnPct)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "output", "Output directory")
	return cmd
}

func newCloseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "close <position-id>",
		Short: "Close an open position at the current price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				trade, err := a.manager.ManualClose(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "closed %s %s at %.8g: pnl %.2f USD (%.2f%%)\n",
					trade.PositionID, trade.Symbol, trade.ExitPrice, trade.PnLUSD, trade.PnLPct)
				return nil
			})
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard all positions and trades and restore the initial balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes the session history, pass --yes to confirm")
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.manager.Reset(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session reset, cash %.2f USD\n", a.manager.Summary().CashBalanceUSD)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres and clickhouse schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dsn := cfg.Storage.PostgresDSN; dsn != "" {
				pool, err := pgstore.NewPool(ctx, dsn)
				if err != nil {
					return fmt.Errorf("connect to postgres: %w", err)
				}
				defer pool.Close()
				applied, err := migrations.RunPostgresMigrations(ctx, pool, logger)
				if err != nil {
					return err
				}
				logger.Info().Int("applied", len(applied)).Msg("postgres schema up to date")
			}

			if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
				conn, applied, err := migrations.RunClickhouseMigrations(ctx, dsn, logger)
				if err != nil {
					return err
				}
				defer conn.Close()
				logger.Info().Int("applied", len(applied)).Msg("clickhouse schema up to date")
			}

			if cfg.Storage.PostgresDSN == "" && cfg.Storage.ClickhouseDSN == "" {
				logger.Warn().Msg("no database configured, nothing to migrate")
			}
			return nil
		},
	}
}

func printRunResult(w io.Writer, res *orchestrator.RunResult) {
	fmt.Fprintf(w, "discovered %d, prefiltered %d, security passed %d, scored %d, passed %d, opened %d\n",
		res.Discovered, res.Prefiltered, res.SecurityPassed, res.Scored, res.Passed, len(res.Opened))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tSCORE\tPASSED\tREASON")
	for _, d := range res.Decisions {
		fmt.Fprintf(tw, "%s\t%.4f\t%t\t%s\n", d.Symbol, d.CompositeScore, d.Passed, d.FailureReason)
	}
	_ = tw.Flush()

	for _, r := range res.Rejections {
		fmt.Fprintf(w, "not opened: %s\n", r.Error())
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
}

func printPortfolio(w io.Writer, s domain.PortfolioSummary, open []*domain.Position) {
	fmt.Fprintf(w, "value %.2f USD  cash %.2f USD  positions %.2f USD  pnl %.2f USD (%.2f%%)\n",
		s.TotalValueUSD, s.CashBalanceUSD, s.PositionsValueUSD, s.PnLUSD, s.PnLPct)
	if len(open) == 0 {
		fmt.Fprintln(w, "no open positions")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSYMBOL\tENTRY\tCURRENT\tPNL%\tREMAINING%\tOPENED")
	for _, p := range open {
		fmt.Fprintf(tw, "%s\t%s\t%.8g\t%.8g\t%.2f\t%.0f\t%s\n",
			p.ID, p.Symbol, p.EntryPrice, p.CurrentPrice, p.CurrentPnLPct, p.RemainingPct,
			time.UnixMilli(p.EntryTime).UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}
