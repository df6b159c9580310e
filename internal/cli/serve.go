package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pooledlist/internal/listview"
	"pooledlist/internal/scene"
	"pooledlist/internal/server"
	"pooledlist/internal/server/metrics"
	"pooledlist/internal/server/session"
	servertls "pooledlist/internal/server/tls"
	"pooledlist/internal/shared/pool"
	"pooledlist/internal/shared/utils"
	"pooledlist/pkg/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve list view sessions over websocket",
	Long: `Start a websocket server where every connection drives its own list view.
All sessions share one row pool owned by a single update loop, so rows
released by one client are reused by the next.

Endpoints:
  /ws        msgpack framed list view session
  /healthz   liveness
  /metrics   Prometheus metrics (or on --metrics-address)

Example:
  pooledlist serve                               Listen on the configured address
  pooledlist serve --address :9000 --trim 1m     Trim idle rows every minute
  pooledlist serve --domain lists.example.com    Automatic TLS via Let's Encrypt`,
	RunE: runServe,
}

var (
	serveAddress        string
	serveMetricsAddress string
	serveDomain         string
	serveEmail          string
	serveTrimInterval   time.Duration
	serveLogLevel       string
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddress, "address", "a", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveMetricsAddress, "metrics-address", "", "Separate metrics listen address")
	serveCmd.Flags().StringVar(&serveDomain, "domain", "", "Domain for automatic TLS")
	serveCmd.Flags().StringVar(&serveEmail, "email", "", "Contact email for the ACME account")
	serveCmd.Flags().DurationVar(&serveTrimInterval, "trim", -1, "Trim interval, 0 disables (default from config)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "", "debug, info, warn or error (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	if err := utils.InitServerLogger(level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func applyServeFlags(cfg *config.Config) {
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if serveMetricsAddress != "" {
		cfg.Server.MetricsAddress = serveMetricsAddress
	}
	if serveDomain != "" {
		cfg.Server.Domain = serveDomain
	}
	if serveTrimInterval >= 0 {
		cfg.Pool.TrimInterval = serveTrimInterval
	}
	if serveLogLevel != "" {
		cfg.Log.Level = serveLogLevel
	}
}

// buildServer wires the shared pool, the session host and the listeners from cfg
func buildServer(cfg *config.Config, logger *zap.Logger) (*server.Server, error) {
	collector := metrics.NewCollector("pooledlist")
	registry := pool.NewRegistry(
		pool.WithLogger(logger.Named("pool")),
		pool.WithObserver(collector),
		pool.WithDefaultCapacity(cfg.Pool.DefaultCapacity),
	)

	snap, err := listview.ParseSnapMode(cfg.List.Snap)
	if err != nil {
		return nil, err
	}

	proto := scene.NewNode(cfg.List.Prototype)
	proto.Height = cfg.List.ElementExtent
	proto.Selectable = true

	sched := pool.NewScheduler(cfg.Server.TickInterval, 0, logger.Named("scheduler"))
	host, err := session.NewHost(sched, registry, scene.NewLifecycle(nil), proto, session.Defaults{
		ElementExtent:  cfg.List.ElementExtent,
		ViewportExtent: cfg.List.ViewportExtent,
		Snap:           snap,
	}, logger.Named("host"))
	if err != nil {
		return nil, err
	}

	// Nothing else touches the pool before Start, so this goroutine may still configure it
	if capacity, ok := cfg.Pool.Capacities[cfg.List.Prototype]; ok {
		if err := host.Pool.SetCapacity(proto, capacity); err != nil {
			return nil, err
		}
	}
	if cfg.Pool.Warmup > 0 {
		if _, err := host.Pool.WarmupIncremental(context.Background(), sched, proto, cfg.Pool.Warmup, nil); err != nil {
			return nil, err
		}
	}

	srvCfg := server.Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Server.MetricsAddress,
		TrimInterval:    cfg.Pool.TrimInterval,
		DefaultCapacity: cfg.Pool.DefaultCapacity,
		SessionTimeout:  cfg.Server.SessionTimeout,
	}
	if cfg.Server.Domain != "" {
		acm := servertls.NewAutoCertManager(cfg.Server.Domain, cfg.Server.CertCache, serveEmail, logger.Named("tls"))
		srvCfg.TLSConfig = acm.TLSConfig()
		srvCfg.ACMEHandler = acm.HTTPHandler(nil)
	}

	manager := session.NewManager(cfg.Server.MaxSessions, logger.Named("sessions"))
	return server.New(srvCfg, host, manager, collector, logger.Named("server")), nil
}
