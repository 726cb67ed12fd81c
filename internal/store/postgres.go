// Package store persists forecast reports in PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/sales-forecast/internal/forecast"
	"github.com/iwvelando/sales-forecast/internal/sales"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no stored report matches a lookup.
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS forecast_reports (
	id               UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	horizons         TEXT[] NOT NULL,
	base_data_period TEXT NOT NULL,
	report           JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS forecast_reports_name_created_idx
	ON forecast_reports (name, created_at DESC);
`

// Postgres stores each report run as one row with a JSONB document.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open connects to databaseURL and makes sure the reports table exists.
func Open(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL not set")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	p := &Postgres{pool: pool, logger: logger}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// EnsureSchema creates the reports table if it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create forecast_reports: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Write stores report under the given name. It satisfies output.Sink.
func (p *Postgres) Write(ctx context.Context, report *forecast.Report, destination string) error {
	_, err := p.Save(ctx, report, destination)
	return err
}

// Save stores report under name and returns the new row's run ID.
func (p *Postgres) Save(ctx context.Context, report *forecast.Report, name string) (uuid.UUID, error) {
	id := uuid.New()

	data, err := json.Marshal(report)
	if err != nil {
		return uuid.Nil, &sales.PersistenceError{Destination: name, Err: err}
	}

	span := forecast.NoData
	if len(report.Horizons) > 0 {
		span = report.Horizons[0].BaseDataPeriod
	}

	query := `
		INSERT INTO forecast_reports (id, name, horizons, base_data_period, report, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5::jsonb, $6)
	`
	_, err = p.pool.Exec(ctx, query, id.String(), name, report.Labels(), span, data, time.Now().UTC())
	if err != nil {
		return uuid.Nil, &sales.PersistenceError{Destination: name, Err: err}
	}

	p.logger.Info("stored forecast report",
		zap.String("op", "store.Postgres.Save"),
		zap.String("name", name),
		zap.String("id", id.String()),
		zap.Strings("horizons", report.Labels()),
	)
	return id, nil
}

// Load returns the report stored with the given run ID.
func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (*forecast.Report, error) {
	var (
		labels []string
		data   []byte
	)
	err := p.pool.QueryRow(ctx, `SELECT horizons, report FROM forecast_reports WHERE id = $1::uuid`, id.String()).Scan(&labels, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return decode(data, labels)
}

// Latest returns the most recently stored report under name and its run ID.
func (p *Postgres) Latest(ctx context.Context, name string) (*forecast.Report, uuid.UUID, error) {
	var (
		rawID  string
		labels []string
		data   []byte
	)
	query := `
		SELECT id::text, horizons, report FROM forecast_reports
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := p.pool.QueryRow(ctx, query, name).Scan(&rawID, &labels, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uuid.Nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load latest report %s: %w", name, err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("stored report has invalid id %q: %w", rawID, err)
	}
	report, err := decode(data, labels)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return report, id, nil
}

// decode parses a stored document. JSONB does not keep object key order, so
// horizons are put back in the order recorded in labels.
func decode(data []byte, labels []string) (*forecast.Report, error) {
	var report forecast.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode stored report: %w", err)
	}
	report.Horizons = inOrder(report.Horizons, labels)
	return &report, nil
}

// inOrder sorts horizons to follow labels. Horizons missing from labels keep
// their relative order after the listed ones.
func inOrder(horizons []forecast.Horizon, labels []string) []forecast.Horizon {
	rank := make(map[string]int, len(labels))
	for i, label := range labels {
		rank[label] = i
	}
	position := func(h forecast.Horizon) int {
		if r, ok := rank[h.Label()]; ok {
			return r
		}
		return len(labels)
	}
	sorted := make([]forecast.Horizon, len(horizons))
	copy(sorted, horizons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return position(sorted[i]) < position(sorted[j])
	})
	return sorted
}
