package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver

	"github.com/unklstewy/vatsim-scope/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect establishes a connection to the PostgreSQL database using the
// configured driver.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: sqlDB, config: cfg}, nil
}

// driverName maps the configured driver to a registered database/sql driver.
func driverName(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "", "postgres":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// connString builds a keyword/value connection string understood by both
// lib/pq and pgx. Empty settings are left out.
func connString(cfg config.DatabaseConfig) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+quoteValue(v))
		}
	}

	add("host", cfg.Host)
	if cfg.Port > 0 {
		add("port", fmt.Sprint(cfg.Port))
	}
	add("user", cfg.Username)
	add("password", cfg.Password)
	add("dbname", cfg.Database)
	add("sslmode", cfg.SSLMode)

	return strings.Join(parts, " ")
}

// quoteValue single-quotes values containing spaces or quotes.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// InitSchema creates or updates the database schema.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// CleanupOldData deletes observations older than maxAge and returns the
// number of rows removed.
func (db *DB) CleanupOldData(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	res, err := db.ExecContext(ctx, `DELETE FROM observations WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old observations: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted observations: %w", err)
	}
	return n, nil
}

// GetStats returns database statistics.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations`).Scan(&total); err != nil {
		return nil, err
	}
	stats["observations"] = total

	var airportCount int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT airport) FROM observations`).Scan(&airportCount); err != nil {
		return nil, err
	}
	stats["airports"] = airportCount

	var latest sql.NullTime
	if err := db.QueryRowContext(ctx, `SELECT MAX(observed_at) FROM observations`).Scan(&latest); err != nil {
		return nil, err
	}
	if latest.Valid {
		stats["latest_observation"] = latest.Time.UTC()
	}

	return stats, nil
}
