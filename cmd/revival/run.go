package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"solana-revival-lab/internal/paper"
)

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 10 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		addr     string
		interval time.Duration
		noScan   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan on a schedule, monitor positions and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if addr != "" {
					a.cfg.HTTP.Addr = addr
				}
				if interval > 0 {
					a.cfg.Scan.Interval = interval
				}
				return a.run(ctx, !noScan)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, overrides config")
	cmd.Flags().DurationVar(&interval, "scan-interval", 0, "Time between scans, overrides config")
	cmd.Flags().BoolVar(&noScan, "no-scan", false, "Only monitor open positions")
	return cmd
}

// run blocks until ctx is cancelled. The scan loop, the monitor and the
// API server share one errgroup; the first failure stops them all.
func (a *app) run(ctx context.Context, scan bool) error {
	g, ctx := errgroup.WithContext(ctx)
	srv := a.server()

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return a.monitor().Run(ctx)
	})

	if scan {
		g.Go(func() error {
			a.scanLoop(ctx)
			return nil
		})
	}

	g.Go(func() error {
		a.logEvents(ctx)
		return nil
	})

	a.log.Info().
		Bool("scan", scan).
		Dur("scan_interval", a.cfg.Scan.Interval).
		Dur("monitor_interval", a.cfg.Monitor.Interval).
		Msg("revival started")

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.log.Info().Msg("shutdown complete")
	return err
}

// scanLoop runs a scan immediately and then on every tick. A failed scan is
// logged and retried at the next tick.
func (a *app) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Scan.Interval)
	defer ticker.Stop()

	for {
		res, err := a.scan(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			a.log.Error().Err(err).Msg("scan failed")
		case err == nil:
			a.log.Info().
				Int("discovered", res.Discovered).
				Int("scored", res.Scored).
				Int("passed", res.Passed).
				Int("opened", len(res.Opened)).
				Int("errors", len(res.Errors)).
				Msg("scan complete")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// logEvents logs position lifecycle changes until ctx is cancelled.
func (a *app) logEvents(ctx context.Context) {
	events := a.manager.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			l := a.log.Info().
				Str("event", string(ev.Type)).
				Str("position", ev.Position.ID).
				Str("symbol", ev.Position.Symbol)
			if ev.Type == paper.EventOpened {
				l.Float64("entry_price", ev.Position.EntryPrice).Msg("position opened")
				continue
			}
			if ev.Trade != nil {
				l = l.Str("exit_type", string(ev.Trade.ExitType)).Float64("pnl_usd", ev.Trade.PnLUSD)
			}
			l.Msg("position exit")
		}
	}
}
