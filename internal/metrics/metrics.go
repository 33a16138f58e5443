// Package metrics exposes Prometheus counters for the blocking engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "reelguard"

// Collector records engine activity. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	detected *prometheus.CounterVec
	blocks   *prometheus.CounterVec
	classify prometheus.Histogram
}

// New creates a collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Accessibility events handled, by gate action.",
		}, []string{"action"}),
		detected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Distracting screens detected, by content type and signal.",
		}, []string{"content_type", "signal"}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Blocking strategies executed, by strategy and final state.",
		}, []string{"strategy", "state"}),
		classify: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent classifying one UI tree.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
	}
	c.registry.MustRegister(
		c.events,
		c.detected,
		c.blocks,
		c.classify,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) EventHandled(action string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(action).Inc()
}

func (c *Collector) Detected(contentType, signal string) {
	if c == nil {
		return
	}
	c.detected.WithLabelValues(contentType, signal).Inc()
}

func (c *Collector) Blocked(strategy, state string) {
	if c == nil {
		return
	}
	c.blocks.WithLabelValues(strategy, state).Inc()
}

func (c *Collector) ClassifyDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.classify.Observe(d.Seconds())
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr, path string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle(path, c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr), zap.String("path", path))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
