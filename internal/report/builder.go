// Package report builds the uptime/downtime CSV artifact for a store.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/storewatch/storewatch/internal/store"
	"github.com/storewatch/storewatch/internal/timeline"
	"github.com/storewatch/storewatch/pkg/models"
)

// csvHeader is fixed by the report contract; consumers parse it positionally.
var csvHeader = []string{
	"store_id", "uptime_last_hour(min)", "uptime_last_day(hrs)",
	"uptime_last_week(hrs)", "downtime_last_hour(min)",
	"downtime_last_day(hrs)", "downtime_last_week(hrs)",
}

// Source is the slice of the store the builder needs.
type Source interface {
	timeline.EventSource
	LatestEventTimestamp(ctx context.Context, storeID string) (string, error)
	GetTimezone(ctx context.Context, storeID string) (string, error)
}

// Builder generates complete report artifacts. All window math runs on the
// event log's UTC clock; the store's local timezone is resolved for logging
// only and never affects the numbers.
type Builder struct {
	store           Source
	recon           *timeline.Reconstructor
	defaultTimezone string
	now             func() time.Time
}

type Option func(*Builder)

// WithNow overrides the wall clock used when a store has no events.
func WithNow(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func NewBuilder(s Source, assumedPriorStatus, defaultTimezone string, opts ...Option) *Builder {
	b := &Builder{
		store:           s,
		recon:           timeline.NewReconstructor(s, assumedPriorStatus),
		defaultTimezone: defaultTimezone,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes the three trailing windows ending at the store's reference
// instant and returns the serialized CSV. Any store failure aborts the build;
// there are no partial artifacts.
func (b *Builder) Build(ctx context.Context, storeID string) (string, error) {
	ref, err := b.referenceInstant(ctx, storeID)
	if err != nil {
		return "", err
	}
	b.logLocalReference(ctx, storeID, ref)

	upHour, downHour, err := b.recon.Reconstruct(ctx, storeID, ref.Add(-time.Hour), ref)
	if err != nil {
		return "", fmt.Errorf("hour window: %w", err)
	}
	upDay, downDay, err := b.recon.Reconstruct(ctx, storeID, ref.Add(-24*time.Hour), ref)
	if err != nil {
		return "", fmt.Errorf("day window: %w", err)
	}
	upWeek, downWeek, err := b.recon.Reconstruct(ctx, storeID, ref.Add(-7*24*time.Hour), ref)
	if err != nil {
		return "", fmt.Errorf("week window: %w", err)
	}

	var out strings.Builder
	w := csv.NewWriter(&out)
	_ = w.Write(csvHeader)
	_ = w.Write([]string{
		storeID,
		formatMetric(upHour / 60),
		formatMetric(upDay / 3600),
		formatMetric(upWeek / 3600),
		formatMetric(downHour / 60),
		formatMetric(downDay / 3600),
		formatMetric(downWeek / 3600),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}

	return out.String(), nil
}

// referenceInstant anchors the windows at the store's most recent observation.
// A store that has never reported falls back to the current wall clock; that
// is a data-quality signal, so it is logged rather than silently absorbed.
func (b *Builder) referenceInstant(ctx context.Context, storeID string) (time.Time, error) {
	raw, err := b.store.LatestEventTimestamp(ctx, storeID)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("no events for store, using current time as reference", "store_id", storeID)
		return b.now().UTC().Truncate(time.Second), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest event timestamp: %w", err)
	}

	ref, err := time.Parse(models.TimeLayout, raw)
	if err != nil {
		slog.Warn("malformed latest timestamp, using current time as reference",
			"store_id", storeID, "timestamp", raw, "error", err)
		return b.now().UTC().Truncate(time.Second), nil
	}
	return ref, nil
}

// logLocalReference projects the reference instant into the store's local
// timezone. Purely cosmetic: lookup or zone failures fall back and never
// fail the report.
func (b *Builder) logLocalReference(ctx context.Context, storeID string, ref time.Time) {
	tz, err := b.store.GetTimezone(ctx, storeID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("timezone lookup failed", "store_id", storeID, "error", err)
		}
		tz = b.defaultTimezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("unknown timezone, keeping UTC reference",
			"store_id", storeID, "timezone", tz, "error", err)
		return
	}

	slog.Info("report reference instant",
		"store_id", storeID, "reference_utc", ref, "reference_local", ref.In(loc), "timezone", tz)
}

// formatMetric renders a duration metric rounded half away from zero to two
// decimals, with trailing zeros trimmed but always at least one decimal
// (1800 seconds in the hour window renders as "30.0" minutes).
func formatMetric(v float64) string {
	rounded := math.Round(v*100) / 100
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
