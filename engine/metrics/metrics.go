// Package metrics exposes draw-order resolver statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/1siamBot/lullaby/engine/sorting"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records every resolver pass. Label values are bounded; there
// are no per-object labels. Collectors are only written from ObservePass,
// so scrapes never touch game state.
type Collector struct {
	reg *prometheus.Registry

	passes     prometheus.Counter
	skipped    prometheus.Counter
	writes     prometheus.Counter
	duration   prometheus.Histogram
	ranked     prometheus.Gauge
	registered prometheus.Gauge
}

// NewCollector creates the collectors on a private registry.
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lullaby_sort_passes_total",
			Help: "Draw-order passes that ranked the registry",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lullaby_sort_passes_skipped_total",
			Help: "Draw-order passes skipped for lack of an active camera",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lullaby_sort_writes_total",
			Help: "Draw orders written back because they changed",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lullaby_sort_pass_duration_seconds",
			Help:    "Time spent in one draw-order pass",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		ranked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lullaby_sort_ranked_objects",
			Help: "Objects ranked by the latest pass",
		}),
		registered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lullaby_sort_registered_objects",
			Help: "Objects registered for sorting at the latest pass",
		}),
	}
	c.reg.MustRegister(c.passes, c.skipped, c.writes, c.duration, c.ranked, c.registered)
	return c
}

// ObservePass implements sorting.Observer.
func (c *Collector) ObservePass(p sorting.Pass, d time.Duration) {
	c.registered.Set(float64(p.Registered))
	if p.Skipped {
		c.skipped.Inc()
		return
	}
	c.passes.Inc()
	c.writes.Add(float64(p.Writes))
	c.ranked.Set(float64(len(p.Ranking)))
	c.duration.Observe(d.Seconds())
}

// Registry returns the Prometheus registry holding the collectors.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Handler serves /metrics and /healthz.
func (c *Collector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return r
}

// Server runs the metrics endpoint in the background.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// Serve starts listening on addr. The returned server must be closed.
func (c *Collector) Serve(addr string, log *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{Handler: c.Handler(), ReadHeaderTimeout: 5 * time.Second},
		log: log,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server stopped", "err", err)
		}
	}()
	log.Info("metrics listening", "addr", ln.Addr().String())
	return s, nil
}

// Close shuts the server down, waiting up to the context deadline.
func (s *Server) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
