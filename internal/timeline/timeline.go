// Package timeline reconstructs continuous uptime/downtime durations from the
// sparse status observations in the event log.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storewatch/storewatch/internal/store"
	"github.com/storewatch/storewatch/pkg/models"
)

// EventSource supplies the two queries a reconstruction needs.
type EventSource interface {
	LatestEventBefore(ctx context.Context, storeID string, t time.Time) (*models.StatusEvent, error)
	EventsInRange(ctx context.Context, storeID string, start, end time.Time) ([]models.StatusEvent, error)
}

// Reconstructor turns a sparse event sequence into uptime/downtime sums.
//
// A store's state is taken to hold from one observation until the next: the
// window is split at every in-window event, each segment is attributed to the
// state of its leading boundary, and segment durations are summed by state.
// The state before the first in-window event comes from the latest event
// preceding the window, or from assumedPriorStatus when none exists.
type Reconstructor struct {
	events             EventSource
	assumedPriorStatus string
}

func NewReconstructor(events EventSource, assumedPriorStatus string) *Reconstructor {
	return &Reconstructor{events: events, assumedPriorStatus: assumedPriorStatus}
}

type boundary struct {
	at     time.Time
	status string
}

// Reconstruct computes (uptime, downtime) in seconds for the window
// [start, end). Both sums are non-negative and, for well-formed events, add
// up to the window length. An empty window yields (0, 0).
func (r *Reconstructor) Reconstruct(ctx context.Context, storeID string, start, end time.Time) (float64, float64, error) {
	if !end.After(start) {
		return 0, 0, nil
	}

	initial := r.assumedPriorStatus
	prior, err := r.events.LatestEventBefore(ctx, storeID, start)
	switch {
	case err == nil:
		initial = prior.Status
	case errors.Is(err, store.ErrNotFound):
		// No observation before the window; fall back to the configured prior.
	default:
		return 0, 0, fmt.Errorf("query prior event: %w", err)
	}

	events, err := r.events.EventsInRange(ctx, storeID, start, end)
	if err != nil {
		return 0, 0, fmt.Errorf("query window events: %w", err)
	}

	boundaries := make([]boundary, 0, len(events)+2)
	boundaries = append(boundaries, boundary{at: start, status: initial})
	for _, e := range events {
		at, err := time.Parse(models.TimeLayout, e.TimestampUTC)
		if err != nil {
			slog.Warn("skipping event with malformed timestamp",
				"store_id", storeID, "timestamp", e.TimestampUTC, "error", err)
			continue
		}
		boundaries = append(boundaries, boundary{at: at, status: e.Status})
	}
	// Terminal boundary only closes the last segment; its status is unused.
	boundaries = append(boundaries, boundary{at: end})

	var uptime, downtime float64
	for i := 0; i < len(boundaries)-1; i++ {
		duration := boundaries[i+1].at.Sub(boundaries[i].at).Seconds()
		if duration < 0 {
			slog.Warn("excluding negative-duration segment",
				"store_id", storeID, "segment_start", boundaries[i].at, "segment_end", boundaries[i+1].at)
			continue
		}
		if boundaries[i].status == models.StatusActive {
			uptime += duration
		} else {
			downtime += duration
		}
	}

	return uptime, downtime, nil
}
