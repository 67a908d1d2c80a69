package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storewatch/storewatch/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Store is the data access interface. All database operations go through here.
//
// The status log is append-only and chronologically ordered per store; the
// event queries return rows with their stored textual timestamps so callers
// can handle malformed rows individually.
type Store interface {
	Ping(ctx context.Context) error

	// LatestEventBefore returns the most recent event strictly before t,
	// or ErrNotFound if the store has no earlier event.
	LatestEventBefore(ctx context.Context, storeID string, t time.Time) (*models.StatusEvent, error)
	// EventsInRange returns all events with start <= timestamp <= end,
	// ascending by timestamp.
	EventsInRange(ctx context.Context, storeID string, start, end time.Time) ([]models.StatusEvent, error)
	// LatestEventTimestamp returns the raw timestamp of the newest event for
	// the store, or ErrNotFound if the store has never reported.
	LatestEventTimestamp(ctx context.Context, storeID string) (string, error)
	// InsertEvents bulk-loads status events (seeding path).
	InsertEvents(ctx context.Context, events []models.StatusEvent) (int64, error)

	// GetTimezone returns the store's zone identifier, or ErrNotFound.
	GetTimezone(ctx context.Context, storeID string) (string, error)
	SetTimezone(ctx context.Context, storeID, timezone string) error

	// SaveReport durably archives a completed report artifact.
	SaveReport(ctx context.Context, report *models.Report) error
	// GetReport returns an archived report, or ErrNotFound.
	GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
}
