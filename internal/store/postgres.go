package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storewatch/storewatch/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Status events ---

func (s *PostgresStore) LatestEventBefore(ctx context.Context, storeID string, t time.Time) (*models.StatusEvent, error) {
	var e models.StatusEvent
	err := s.pool.QueryRow(ctx,
		`SELECT store_id, timestamp_utc, status FROM store_status
		 WHERE store_id = $1 AND timestamp_utc < $2
		 ORDER BY timestamp_utc DESC LIMIT 1`,
		storeID, t.UTC().Format(models.TimeLayout),
	).Scan(&e.StoreID, &e.TimestampUTC, &e.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest event before: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) EventsInRange(ctx context.Context, storeID string, start, end time.Time) ([]models.StatusEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT store_id, timestamp_utc, status FROM store_status
		 WHERE store_id = $1 AND timestamp_utc BETWEEN $2 AND $3
		 ORDER BY timestamp_utc ASC`,
		storeID, start.UTC().Format(models.TimeLayout), end.UTC().Format(models.TimeLayout))
	if err != nil {
		return nil, fmt.Errorf("events in range: %w", err)
	}
	defer rows.Close()

	var events []models.StatusEvent
	for rows.Next() {
		var e models.StatusEvent
		if err := rows.Scan(&e.StoreID, &e.TimestampUTC, &e.Status); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) LatestEventTimestamp(ctx context.Context, storeID string) (string, error) {
	var ts *string
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(timestamp_utc) FROM store_status WHERE store_id = $1`, storeID,
	).Scan(&ts)
	if err != nil {
		return "", fmt.Errorf("latest event timestamp: %w", err)
	}
	if ts == nil {
		return "", ErrNotFound
	}
	return *ts, nil
}

func (s *PostgresStore) InsertEvents(ctx context.Context, events []models.StatusEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		rows = append(rows, []any{e.StoreID, e.TimestampUTC, e.Status})
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"store_status"},
		[]string{"store_id", "timestamp_utc", "status"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("insert events: %w", err)
	}
	return n, nil
}

// --- Timezones ---

func (s *PostgresStore) GetTimezone(ctx context.Context, storeID string) (string, error) {
	var tz string
	err := s.pool.QueryRow(ctx,
		`SELECT timezone_str FROM timezones WHERE store_id = $1`, storeID,
	).Scan(&tz)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get timezone: %w", err)
	}
	return tz, nil
}

func (s *PostgresStore) SetTimezone(ctx context.Context, storeID, timezone string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO timezones (store_id, timezone_str) VALUES ($1, $2)
		 ON CONFLICT (store_id) DO UPDATE SET timezone_str = EXCLUDED.timezone_str`,
		storeID, timezone)
	if err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

// --- Report archive ---

func (s *PostgresStore) SaveReport(ctx context.Context, report *models.Report) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (report_id, store_id, report_data, generated_at)
		 VALUES ($1, $2, $3, $4)`,
		report.ReportID, report.StoreID, report.Data, report.GeneratedAt)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	var r models.Report
	err := s.pool.QueryRow(ctx,
		`SELECT report_id, store_id, report_data, generated_at FROM reports WHERE report_id = $1`,
		reportID,
	).Scan(&r.ReportID, &r.StoreID, &r.Data, &r.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}
