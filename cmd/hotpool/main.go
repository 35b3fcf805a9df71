package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/hotpool/pkg/config"
	"github.com/ajitpratap0/hotpool/pkg/logger"
)

var version = "0.1.0"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile  string
	metricsAddr string
	logLevel    string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "hotpool",
		Short: "hotpool - memory-pressure-aware object pools for order processing",
		Long: `hotpool recycles hot-path objects through pools that stop growing when
memory headroom runs low. This tool inspects the memory monitor, prints the
effective configuration and benchmarks both pool kinds.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to YAML configuration file (HOTPOOL_* environment variables override it)")
	root.PersistentFlags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr and enables metrics)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hotpool v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newConfigCommand(flags))
	root.AddCommand(newMonitorCommand(flags))
	root.AddCommand(newBenchCommand(flags))

	return root
}

// setup loads configuration, applies flag overrides and initializes the
// global logger.
func setup(flags *globalFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if flags.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = flags.metricsAddr
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	if err := logger.Init(cfg.Logging); err != nil {
		return nil, nil, err
	}
	log := logger.Named("hotpool-cli").With(zap.String("version", version))
	return cfg, log, nil
}
