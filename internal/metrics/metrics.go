// Package metrics exposes Prometheus metrics for the collector.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// Feed label values.
const (
	FeedStatus       = "status"
	FeedLive         = "live"
	FeedTransceivers = "transceivers"
)

// Collector bundles the collector's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	FetchTotal         *prometheus.CounterVec
	FetchDuration      *prometheus.HistogramVec
	MirrorSelected     *prometheus.CounterVec
	PilotsNear         *prometheus.GaugeVec
	ObservationsStored prometheus.Counter
}

// New registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against the same registry returns the
// existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	fetchTotal, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vatsim_fetch_total",
		Help: "Requests to the VATSIM data services, labeled by feed and outcome.",
	}, []string{"feed", "outcome"}))
	if err != nil {
		return nil, err
	}

	fetchDuration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vatsim_fetch_duration_seconds",
		Help:    "Latency of requests to the VATSIM data services.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"feed"}))
	if err != nil {
		return nil, err
	}

	mirrorSelected, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vatsim_mirror_selected_total",
		Help: "Mirrors chosen during endpoint resolution, labeled by feed and mirror host.",
	}, []string{"feed", "mirror"}))
	if err != nil {
		return nil, err
	}

	pilotsNear, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "vatsim_pilots_near",
		Help: "Pilots within the configured radius of each airport at the last poll.",
	}, []string{"airport"}))
	if err != nil {
		return nil, err
	}

	stored, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vatsim_observations_stored_total",
		Help: "Proximity observations written to the database.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		FetchTotal:         fetchTotal,
		FetchDuration:      fetchDuration,
		MirrorSelected:     mirrorSelected,
		PilotsNear:         pilotsNear,
		ObservationsStored: stored,
	}, nil
}

// Observe records the outcome and latency of one request to feed.
func (c *Collector) Observe(feed string, start time.Time, err error) {
	if c == nil {
		return
	}
	c.FetchTotal.WithLabelValues(feed, Outcome(err)).Inc()
	c.FetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
}

// RecordMirrors counts the mirrors chosen by a resolution.
func (c *Collector) RecordMirrors(ep vatsim.Endpoints) {
	if c == nil {
		return
	}
	c.MirrorSelected.WithLabelValues(FeedLive, mirrorHost(ep.LiveURL())).Inc()
	c.MirrorSelected.WithLabelValues(FeedTransceivers, mirrorHost(ep.TransceiversURL())).Inc()
}

// SetPilotsNear records the pilot count around an airport.
func (c *Collector) SetPilotsNear(airport string, n int) {
	if c == nil {
		return
	}
	c.PilotsNear.WithLabelValues(airport).Set(float64(n))
}

// AddObservationsStored counts observations written to the database.
func (c *Collector) AddObservationsStored(n int) {
	if c == nil {
		return
	}
	c.ObservationsStored.Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Outcome classifies an error into a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := vatsim.IsUpstreamUnavailable(err); ok {
		return "upstream_unavailable"
	}
	if _, ok := vatsim.IsFetchFailed(err); ok {
		return "fetch_failed"
	}
	if _, ok := vatsim.IsMalformedResponse(err); ok {
		return "malformed"
	}
	if errors.Is(err, vatsim.ErrEmptyPool) {
		return "empty_pool"
	}
	return "error"
}

// mirrorHost keeps mirror labels bounded to host names.
func mirrorHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero C
		return zero, err
	}
	return c, nil
}
