package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/unklstewy/vatsim-scope/internal/db"
	"github.com/unklstewy/vatsim-scope/pkg/config"
)

var errNotConnected = errors.New("database not connected")

// storage owns the database handle. Ensure replaces the handle when the
// connection has been lost, so callers never hold a stale *db.DB.
type storage struct {
	cfg    config.DatabaseConfig
	logger *slog.Logger

	mu   sync.RWMutex
	db   *db.DB
	repo *db.ObservationRepository
}

func newStorage(database *db.DB, cfg config.DatabaseConfig, logger *slog.Logger) *storage {
	s := &storage{cfg: cfg, logger: logger}
	s.set(database)
	return s
}

func (s *storage) set(database *db.DB) {
	s.db = database
	s.repo = nil
	if database != nil {
		s.repo = db.NewObservationRepository(database)
	}
}

func (s *storage) current() (*db.DB, *db.ObservationRepository) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db, s.repo
}

// Ensure pings the database and reconnects if the ping fails. A failed
// reconnect leaves the storage disconnected until the next call.
func (s *storage) Ensure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	database, err := db.EnsureConnection(ctx, s.db, s.cfg, s.logger)
	if err != nil {
		// EnsureConnection has already closed the old handle.
		s.set(nil)
		return err
	}
	if database != s.db {
		s.logger.InfoContext(ctx, "database reconnected", slog.String("host", s.cfg.Host))
		s.set(database)
	}
	return nil
}

func (s *storage) InsertObservations(ctx context.Context, obs []db.Observation) error {
	_, repo := s.current()
	if repo == nil {
		return errNotConnected
	}
	return repo.InsertObservations(ctx, obs)
}

func (s *storage) RecentForAirport(ctx context.Context, icao string, since time.Time, limit int) ([]db.Observation, error) {
	_, repo := s.current()
	if repo == nil {
		return nil, errNotConnected
	}
	return repo.RecentForAirport(ctx, icao, since, limit)
}

func (s *storage) CleanupOldData(ctx context.Context, maxAge time.Duration) (int64, error) {
	database, _ := s.current()
	if database == nil {
		return 0, errNotConnected
	}
	return database.CleanupOldData(ctx, maxAge)
}

func (s *storage) GetStats(ctx context.Context) (map[string]interface{}, error) {
	database, _ := s.current()
	if database == nil {
		return nil, errNotConnected
	}
	return database.GetStats(ctx)
}

// Health reports whether the current handle answers queries.
func (s *storage) Health(ctx context.Context) error {
	database, _ := s.current()
	return db.HealthCheck(ctx, database)
}

func (s *storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.set(nil)
	return err
}
