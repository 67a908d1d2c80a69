// Package main loads status-event and timezone CSV exports into the database.
//
// The event export carries timestamps like "2023-01-25 18:13:22.47922 UTC";
// they are normalized to the store's second-granularity UTC form on the way in.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/storewatch/storewatch/internal/config"
	"github.com/storewatch/storewatch/internal/store"
	"github.com/storewatch/storewatch/pkg/models"
)

const batchSize = 5000

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	eventsPath := flag.String("events", "", "path to the store_status CSV export")
	timezonesPath := flag.String("timezones", "", "path to the timezones CSV export")
	flag.Parse()

	if err := run(*eventsPath, *timezonesPath); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(eventsPath, timezonesPath string) error {
	if eventsPath == "" && timezonesPath == "" {
		return fmt.Errorf("nothing to do: pass -events and/or -timezones")
	}

	_ = godotenv.Load()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := store.Connect(ctx, config.DatabaseConfig{
		URL:             databaseURL,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := store.RunMigrations(databaseURL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	pgStore := store.NewPostgresStore(pool)

	if eventsPath != "" {
		n, err := loadEvents(ctx, pgStore, eventsPath)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		slog.Info("events loaded", "rows", n, "file", eventsPath)
	}

	if timezonesPath != "" {
		n, err := loadTimezones(ctx, pgStore, timezonesPath)
		if err != nil {
			return fmt.Errorf("load timezones: %w", err)
		}
		slog.Info("timezones loaded", "rows", n, "file", timezonesPath)
	}

	return nil
}

func loadEvents(ctx context.Context, s store.Store, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, "store_id", "status", "timestamp_utc")
	if err != nil {
		return 0, err
	}

	var total int64
	batch := make([]models.StatusEvent, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.InsertEvents(ctx, batch)
		total += n
		batch = batch[:0]
		return err
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read row: %w", err)
		}

		ts, err := normalizeTimestamp(rec[cols["timestamp_utc"]])
		if err != nil {
			slog.Warn("skipping row with malformed timestamp",
				"store_id", rec[cols["store_id"]], "timestamp", rec[cols["timestamp_utc"]], "error", err)
			continue
		}

		status := strings.ToLower(strings.TrimSpace(rec[cols["status"]]))
		if status != models.StatusActive && status != models.StatusInactive {
			slog.Warn("skipping row with unknown status",
				"store_id", rec[cols["store_id"]], "status", rec[cols["status"]])
			continue
		}

		batch = append(batch, models.StatusEvent{
			StoreID:      rec[cols["store_id"]],
			TimestampUTC: ts,
			Status:       status,
		})
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	return total, flush()
}

func loadTimezones(ctx context.Context, s store.Store, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, "store_id", "timezone_str")
	if err != nil {
		return 0, err
	}

	var total int64
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, fmt.Errorf("read row: %w", err)
		}
		if err := s.SetTimezone(ctx, rec[cols["store_id"]], rec[cols["timezone_str"]]); err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}

// columnIndex maps the wanted column names to their positions in the header.
func columnIndex(header []string, wanted ...string) (map[string]int, error) {
	idx := make(map[string]int, len(wanted))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range wanted {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", name, header)
		}
	}
	return idx, nil
}

// normalizeTimestamp converts an export timestamp to the stored form:
// "2023-01-25 18:13:22.47922 UTC" becomes "2023-01-25 18:13:22".
func normalizeTimestamp(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, " UTC")
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		s = s[:dot]
	}
	if _, err := time.Parse(models.TimeLayout, s); err != nil {
		return "", err
	}
	return s, nil
}
