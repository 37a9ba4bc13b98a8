package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/aggregator"
	"github.com/atikulmunna/uartwatch/internal/hub"
	"github.com/atikulmunna/uartwatch/internal/metrics"
	"github.com/atikulmunna/uartwatch/internal/model"
	"github.com/atikulmunna/uartwatch/internal/report"
	"github.com/atikulmunna/uartwatch/internal/watchdog"
)

const (
	recentEvents    = 100
	shutdownTimeout = 5 * time.Second
)

// Options configures the HTTP server.
type Options struct {
	Listen string
	Pprof  bool
}

// Server holds the Gin engine and the monitor components it exposes.
type Server struct {
	engine     *gin.Engine
	opts       Options
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	watchdogs  *watchdog.Set
	reports    *report.Scheduler
	metrics    *metrics.Metrics
	log        logrus.FieldLogger

	mu     sync.Mutex
	events []model.Event
}

// New creates the status server.
func New(opts Options, h *hub.Hub, agg *aggregator.Aggregator, dogs *watchdog.Set, reports *report.Scheduler, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		opts:       opts,
		hub:        h,
		aggregator: agg,
		watchdogs:  dogs,
		reports:    reports,
		metrics:    m,
		log:        log.WithField("component", "server"),
	}

	s.setupRoutes()
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RecordEvent keeps ev in the bounded list served by /api/events.
func (s *Server) RecordEvent(ev model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > recentEvents {
		s.events = s.events[len(s.events)-recentEvents:]
	}
}

func (s *Server) recent() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event{}, s.events...)
}

func (s *Server) setupRoutes() {
	// Health check. Degraded while any watchdog is in error.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		var errored []string
		for _, st := range s.watchdogs.Status() {
			if st.Errored {
				errored = append(errored, st.Name)
			}
		}
		status, code := "ok", http.StatusOK
		if len(errored) > 0 {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":        status,
			"uptime":        stats.Uptime,
			"source":        stats.Source,
			"lps":           stats.LPS,
			"dropped_lines": stats.DroppedLines,
			"errored":       errored,
		})
	})

	api := s.engine.Group("/api")
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})
	api.GET("/watchdogs", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.watchdogs.Status())
	})
	api.GET("/reports", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.reports.Snapshot())
	})
	api.GET("/events", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.recent())
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	if !s.opts.Pprof {
		return
	}
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("status server listening on %s", s.opts.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
