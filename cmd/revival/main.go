// Command revival runs the Solana token revival scanner and its paper trading session.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"solana-revival-lab/internal/config"
	"solana-revival-lab/internal/logging"
)

const appName = "revival"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Solana token revival scanner with paper trading",
		Long:          "Discovers Solana tokens recovering from a crash, scores them and trades the best ones on a simulated book.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the YAML config file (default config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides config")
	rootCmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human readable console logs")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newRunCmd(opts),
		newPortfolioCmd(opts),
		newReportCmd(opts),
		newCloseCmd(opts),
		newResetCmd(opts),
		newMigrateCmd(opts),
	)
	return rootCmd
}

// load reads the configuration and sets up logging.
func (o *rootOptions) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.pretty {
		cfg.Log.Pretty = true
	}
	return cfg, logging.Setup(cfg.Log.Level, cfg.Log.Pretty), nil
}

// withApp loads the configuration, wires the application and runs fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
