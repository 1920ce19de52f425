package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/unklstewy/vatsim-scope/internal/db"
	"github.com/unklstewy/vatsim-scope/internal/metrics"
	"github.com/unklstewy/vatsim-scope/pkg/airports"
	"github.com/unklstewy/vatsim-scope/pkg/coordinates"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

// observationStore is the subset of db.ObservationRepository the collector uses.
type observationStore interface {
	InsertObservations(ctx context.Context, obs []db.Observation) error
	RecentForAirport(ctx context.Context, icao string, since time.Time, limit int) ([]db.Observation, error)
}

// maintainer keeps the database connected and within retention.
type maintainer interface {
	Ensure(ctx context.Context) error
	CleanupOldData(ctx context.Context, maxAge time.Duration) (int64, error)
	GetStats(ctx context.Context) (map[string]interface{}, error)
}

// target is an airport whose surroundings are recorded.
type target struct {
	ICAO     string
	Location coordinates.Geographic
}

// resolveTargets looks up ICAO codes in the airport table. Unknown codes are
// returned separately so the caller can report them.
func resolveTargets(codes []string) (targets []target, unknown []string) {
	seen := make(map[string]bool)
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		loc, ok := airports.Lookup(code)
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		targets = append(targets, target{ICAO: code, Location: loc})
	}
	return targets, unknown
}

// pollResult is the outcome of the most recent poll.
type pollResult struct {
	Endpoints   vatsim.Endpoints
	PolledAt    time.Time
	SnapshotAt  time.Time
	Pilots      int
	Controllers int
	Near        map[string][]vatsim.PilotDistance
	Stored      int
	Err         error

	// NearTransceivers counts transceivers within range of each target.
	// Nil when the transceiver feed could not be read.
	NearTransceivers map[string]int
}

// Collector polls the live feeds and records pilots near each target.
type Collector struct {
	client     *vatsim.Client
	store      observationStore
	maintainer maintainer
	metrics    *metrics.Collector
	logger     *slog.Logger
	targets    []target
	radiusNM   int
	retry      vatsim.RetryConfig

	interval  time.Duration
	retention time.Duration

	mu     sync.RWMutex
	last   pollResult
	polls  int
	errors int
}

// Run polls immediately, then on every interval until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	c.logPoll(ctx, c.Poll(ctx))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.logPoll(ctx, c.Poll(ctx))
		case <-cleanupTicker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Collector) logPoll(ctx context.Context, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.logger.ErrorContext(ctx, "poll failed", slog.Any("error", err))
}

// Poll runs one resolve-then-fetch cycle. Both feeds are read from the same
// resolved endpoints.
func (c *Collector) Poll(ctx context.Context) error {
	res := pollResult{PolledAt: time.Now().UTC()}
	err := c.poll(ctx, &res)
	res.Err = err

	c.mu.Lock()
	c.polls++
	if err != nil {
		c.errors++
		// Keep the last good proximity view; record only the failure.
		c.last.Err = err
		c.last.PolledAt = res.PolledAt
	} else {
		c.last = res
	}
	c.mu.Unlock()

	return err
}

func (c *Collector) poll(ctx context.Context, res *pollResult) error {
	ep, err := vatsim.RetryWithBackoffResult(ctx, c.retry, func() (vatsim.Endpoints, error) {
		start := time.Now()
		ep, err := c.client.Resolve(ctx)
		c.metrics.Observe(metrics.FeedStatus, start, err)
		return ep, err
	})
	if err != nil {
		return err
	}
	c.metrics.RecordMirrors(ep)
	res.Endpoints = ep

	snap, err := vatsim.RetryWithBackoffResult(ctx, c.retry, func() (*vatsim.LiveSnapshot, error) {
		start := time.Now()
		snap, err := c.client.FetchLiveSnapshot(ctx, ep)
		c.metrics.Observe(metrics.FeedLive, start, err)
		return snap, err
	})
	if err != nil {
		return err
	}

	xcvrStart := time.Now()
	xcvrs, xcvrErr := c.client.FetchTransceivers(ctx, ep)
	c.metrics.Observe(metrics.FeedTransceivers, xcvrStart, xcvrErr)
	if xcvrErr != nil {
		// Positions come from the live snapshot; transceivers only add detail.
		c.logger.WarnContext(ctx, "transceiver fetch failed", slog.Any("error", xcvrErr))
	}

	res.SnapshotAt = snap.General.UpdateTimestamp
	if res.SnapshotAt.IsZero() {
		res.SnapshotAt = res.PolledAt
	}
	res.Pilots = len(snap.Pilots)
	res.Controllers = len(snap.Controllers)
	res.Near = make(map[string][]vatsim.PilotDistance, len(c.targets))
	if xcvrErr == nil {
		res.NearTransceivers = make(map[string]int, len(c.targets))
	}

	var obs []db.Observation
	for _, t := range c.targets {
		near := vatsim.PilotsNear(snap, t.Location, c.radiusNM)
		res.Near[t.ICAO] = near
		c.metrics.SetPilotsNear(t.ICAO, len(near))
		obs = append(obs, db.ObservationsFromProximity(t.ICAO, near, res.SnapshotAt, ep.LiveURL())...)
		if res.NearTransceivers != nil {
			res.NearTransceivers[t.ICAO] = len(vatsim.TransceiversNear(xcvrs, t.Location, c.radiusNM))
		}
	}

	if c.store != nil && len(obs) > 0 {
		err := db.WithRetry(ctx, func() error {
			return c.store.InsertObservations(ctx, obs)
		}, 2)
		if err != nil {
			return err
		}
		res.Stored = len(obs)
		c.metrics.AddObservationsStored(len(obs))
	}

	c.logger.InfoContext(ctx, "poll complete",
		slog.String("live", ep.LiveURL()),
		slog.Int("pilots", res.Pilots),
		slog.Int("controllers", res.Controllers),
		slog.Int("stored", res.Stored))

	return nil
}

// cleanup reconnects the database if needed, removes observations past
// retention and logs table statistics.
func (c *Collector) cleanup(ctx context.Context) {
	if c.maintainer == nil {
		return
	}
	if err := c.maintainer.Ensure(ctx); err != nil {
		c.logger.ErrorContext(ctx, "database unavailable", slog.Any("error", err))
		return
	}

	if c.retention > 0 {
		n, err := c.maintainer.CleanupOldData(ctx, c.retention)
		if err != nil {
			c.logger.ErrorContext(ctx, "cleanup failed", slog.Any("error", err))
			return
		}
		c.logger.InfoContext(ctx, "cleanup complete", slog.Int64("deleted", n))
	}

	stats, err := c.maintainer.GetStats(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to read database stats", slog.Any("error", err))
		return
	}
	attrs := []any{
		slog.Any("observations", stats["observations"]),
		slog.Any("airports", stats["airports"]),
	}
	if latest, ok := stats["latest_observation"]; ok {
		attrs = append(attrs, slog.Any("latest", latest))
	}
	c.logger.InfoContext(ctx, "database stats", attrs...)
}

// Last returns the most recent poll result along with poll counters.
func (c *Collector) Last() (pollResult, int, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.polls, c.errors
}

// hasTarget reports whether icao is being collected.
func (c *Collector) hasTarget(icao string) bool {
	for _, t := range c.targets {
		if t.ICAO == icao {
			return true
		}
	}
	return false
}
