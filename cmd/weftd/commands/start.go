package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weftrpc/weft/internal/logger"
	"github.com/weftrpc/weft/pkg/config"
	"github.com/weftrpc/weft/pkg/declare"
	"github.com/weftrpc/weft/pkg/metrics"
	"github.com/weftrpc/weft/pkg/metrics/prometheus"
	"github.com/weftrpc/weft/pkg/server"
	"github.com/weftrpc/weft/pkg/supervisor"
)

var (
	foreground  bool
	pidFile     string
	logFile     string
	modulePaths []string
	metricsOn   bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the weftd server",
	Long: `Start the weftd server with the specified configuration.

By default, the server runs in the background (daemon mode). Use
--foreground to run in the foreground for debugging or when managed by a
process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/weft/config.yaml.

Examples:
  # Start in background (default)
  weftd start

  # Start in foreground, loading one module plugin
  weftd start --foreground --module ./helloworld.so

  # Start with environment variable overrides
  WEFT_LOGGING_LEVEL=DEBUG weftd start --foreground`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/weft/weftd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/weft/weftd.log)")
	startCmd.Flags().StringSliceVar(&modulePaths, "module", nil, "Path to a declare module plugin (.so); repeatable")
	startCmd.Flags().BoolVar(&metricsOn, "metrics", false, "Enable Prometheus connection/dispatch metrics")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.Load(GetConfigFile(), cmd.Flags())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg.Logging); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := slog.Default()
	log.Info("weftd starting", "version", Version, "config_source", getConfigSource(GetConfigFile()))

	reg := declare.NewRegistry()
	if len(modulePaths) > 0 {
		if err := LoadModules(modulePaths, reg); err != nil {
			return fmt.Errorf("failed to load modules: %w", err)
		}
		log.Info("modules loaded", "count", len(modulePaths), "methods", reg.Names())
	} else {
		log.Warn("no modules loaded, every call will resolve to FunctionNotImplemented")
	}

	metrics.InitRegistry(metricsOn)
	connMetrics := prometheus.NewConnectionMetrics()
	if metrics.IsEnabled() {
		log.Info("metrics enabled")
	}

	srv := server.New(cfg.Server, reg, log)
	srv.SetMetrics(connMetrics)
	metrics.WireConnectionEvents(srv.State(), connMetrics)

	if err := srv.Listen(); err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	log.Info("listening", slog.String("host", cfg.Server.Host), slog.Int("port", cfg.Server.Port))

	var sup *supervisor.Supervisor
	if cfg.Supervisor.Workers > 0 {
		sup = &supervisor.Supervisor{
			WorkerArgs:        cfg.Supervisor.WorkerArgs,
			WorkerMemoryLimit: cfg.Supervisor.WorkerMemoryLimitBytes,
			Logger:            log,
		}
		go func() {
			if err := sup.Start(ctx, cfg.Supervisor.Workers); err != nil {
				log.Error("supervisor stopped", "err", err)
			}
		}()
		log.Info("supervisor started", logger.WorkerCount(cfg.Supervisor.Workers))
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("server is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		log.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			log.Error("server shutdown error", "err", err)
			return err
		}
		log.Info("server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			log.Error("server error", "err", err)
			return err
		}
		log.Info("server stopped")
	}

	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return "defaults/environment"
}
