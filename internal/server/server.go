// Package server hosts list view sessions over websocket, with Prometheus
// metrics and a periodic trim of the shared pools.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"pooledlist/internal/server/metrics"
	"pooledlist/internal/server/session"
	"pooledlist/internal/shared/pool"

	"go.uber.org/zap"
)

const statsInterval = 5 * time.Second

// Config holds the listener and maintenance settings
type Config struct {
	Address        string
	MetricsAddress string // empty serves /metrics on Address
	TLSConfig      *tls.Config
	// ACMEHandler, when set, is served on :80 for certificate challenges
	ACMEHandler     http.Handler
	TrimInterval    time.Duration
	DefaultCapacity int
	SessionTimeout  time.Duration
}

// Server owns the scheduler goroutine and every listener
type Server struct {
	cfg       Config
	host      *session.Host
	manager   *session.Manager
	collector *metrics.Collector
	logger    *zap.Logger

	listener net.Listener
	servers  []*http.Server
	stopCh   chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a server. collector may be nil.
func New(cfg Config, host *session.Host, manager *session.Manager, collector *metrics.Collector, logger *zap.Logger) *Server {
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 90 * time.Second
	}
	return &Server{
		cfg:       cfg,
		host:      host,
		manager:   manager,
		collector: collector,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// Handler returns the HTTP routes served on the main address
func (s *Server) Handler() http.Handler {
	hooks := session.Hooks{}
	if s.collector != nil {
		hooks.Opened = func(*session.Session) { s.collector.SessionOpened() }
		hooks.Closed = func(*session.Session) { s.collector.SessionClosed() }
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", session.NewHandler(s.host, s.manager, s.cfg.SessionTimeout, hooks, s.logger))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok %d sessions\n", s.manager.Count())
	})
	if s.collector != nil && s.cfg.MetricsAddress == "" {
		mux.Handle("/metrics", s.collector.Handler())
	}
	return mux
}

// Start opens the listeners and starts the scheduler and maintenance loops
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address, err)
	}
	if s.cfg.TLSConfig != nil {
		ln = tls.NewListener(ln, s.cfg.TLSConfig)
	}
	s.listener = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.host.Scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("Scheduler stopped", zap.Error(err))
		}
	}()

	s.serve(&http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}, ln)

	if s.collector != nil && s.cfg.MetricsAddress != "" {
		mln, err := net.Listen("tcp", s.cfg.MetricsAddress)
		if err != nil {
			_ = s.Stop(context.Background())
			return fmt.Errorf("failed to listen on %s: %w", s.cfg.MetricsAddress, err)
		}
		s.serve(&http.Server{Handler: s.collector.Handler(), ReadHeaderTimeout: 10 * time.Second}, mln)
	}

	if s.cfg.ACMEHandler != nil {
		aln, err := net.Listen("tcp", ":80")
		if err != nil {
			s.logger.Warn("ACME challenge listener unavailable", zap.Error(err))
		} else {
			s.serve(&http.Server{Handler: s.cfg.ACMEHandler, ReadHeaderTimeout: 10 * time.Second}, aln)
		}
	}

	s.manager.StartCleanupTask(ctx, s.cfg.SessionTimeout/2, s.cfg.SessionTimeout)

	s.wg.Add(1)
	go s.maintain()

	s.logger.Info("Server started",
		zap.String("address", ln.Addr().String()),
		zap.Bool("tls", s.cfg.TLSConfig != nil),
		zap.Duration("trim_interval", s.cfg.TrimInterval),
	)
	return nil
}

func (s *Server) serve(srv *http.Server, ln net.Listener) {
	s.servers = append(s.servers, srv)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.String("address", ln.Addr().String()), zap.Error(err))
		}
	}()
}

// maintain trims idle instances and refreshes the pool gauges
func (s *Server) maintain() {
	defer s.wg.Done()

	stats := time.NewTicker(statsInterval)
	defer stats.Stop()

	var trimCh <-chan time.Time
	if s.cfg.TrimInterval > 0 {
		trim := time.NewTicker(s.cfg.TrimInterval)
		defer trim.Stop()
		trimCh = trim.C
	}

	for {
		select {
		case <-trimCh:
			s.TrimNow()
		case <-stats.C:
			s.host.Scheduler.Submit(func() {
				s.observe(s.host.Registry.Snapshot())
			})
		case <-s.stopCh:
			return
		}
	}
}

// TrimNow queues one trim pass on the scheduler
func (s *Server) TrimNow() bool {
	return s.host.Trim(s.cfg.DefaultCapacity, func(n int, stats []pool.TypeStats) {
		if s.collector != nil {
			s.collector.Trimmed(n)
		}
		s.observe(stats)
	})
}

func (s *Server) observe(stats []pool.TypeStats) {
	if s.collector != nil {
		s.collector.ObserveStats(stats)
	}
}

// Addr returns the main listener address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts down listeners and sessions, stops the scheduler and runs
// the jobs still queued, including view releases.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping server")
		close(s.stopCh)

		for _, srv := range s.servers {
			if e := srv.Shutdown(ctx); e != nil {
				err = errors.Join(err, e)
			}
		}
		s.manager.Shutdown()

		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.host.Scheduler.Close()

		s.logger.Info("Server stopped")
	})
	return err
}
