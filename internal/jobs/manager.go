// Package jobs owns the asynchronous report job lifecycle: submit returns
// immediately, a bounded worker pool builds reports in the background, and
// poll exposes a consistent snapshot of each job.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storewatch/storewatch/internal/metrics"
	"github.com/storewatch/storewatch/internal/store"
	"github.com/storewatch/storewatch/pkg/models"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrQueueFull   = errors.New("report queue is full")
)

// statusTTL bounds how long the Redis status mirror outlives a job. It only
// backs polls that miss both the registry and the archive, so a generous
// window is enough.
const statusTTL = 24 * time.Hour

// ReportBuilder produces the CSV artifact for one store.
type ReportBuilder interface {
	Build(ctx context.Context, storeID string) (string, error)
}

// Archive is the durable report store consulted when a job is not resident
// in memory (process restart).
type Archive interface {
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error)
}

// StatusCache mirrors job statuses best-effort; failures are logged, never
// surfaced.
type StatusCache interface {
	SetJobStatus(ctx context.Context, jobID uuid.UUID, status string, ttl time.Duration) error
	GetJobStatus(ctx context.Context, jobID uuid.UUID) (string, bool, error)
}

// View is a point-in-time snapshot of a job. CSV is populated exactly when
// Status is Complete.
type View struct {
	ID      uuid.UUID
	StoreID string
	Status  string
	CSV     string
}

type task struct {
	id      uuid.UUID
	storeID string
}

// Manager coordinates the registry and the worker pool. Submit and Poll
// never block on report generation.
type Manager struct {
	builder ReportBuilder
	archive Archive
	cache   StatusCache
	metrics *metrics.Metrics
	reg     *registry
	tasks   chan task
	wg      sync.WaitGroup
}

// NewManager starts workers goroutines draining a queue of queueCapacity
// pending builds.
func NewManager(builder ReportBuilder, archive Archive, cache StatusCache, m *metrics.Metrics, workers, queueCapacity int) *Manager {
	mgr := &Manager{
		builder: builder,
		archive: archive,
		cache:   cache,
		metrics: m,
		reg:     newRegistry(),
		tasks:   make(chan task, queueCapacity),
	}
	for i := 0; i < workers; i++ {
		mgr.wg.Add(1)
		go mgr.worker()
	}
	return mgr
}

// Submit registers a Pending job for the store and enqueues its execution,
// returning the job ID without waiting for the build. When the queue is
// saturated the job is transitioned straight to Error — never left orphaned
// in Pending — and ErrQueueFull is returned.
func (m *Manager) Submit(ctx context.Context, storeID string) (uuid.UUID, error) {
	id := uuid.New()
	m.reg.create(id, storeID)
	m.metrics.JobsSubmitted.Inc()
	m.mirrorStatus(ctx, id, models.JobStatusPending)

	select {
	case m.tasks <- task{id: id, storeID: storeID}:
		m.metrics.JobsInFlight.Inc()
	default:
		if err := m.reg.transition(id, models.JobStatusError); err != nil {
			slog.Error("failed to mark saturated job as errored", "job_id", id, "error", err)
		}
		m.metrics.JobsFailed.Inc()
		m.mirrorStatus(ctx, id, models.JobStatusError)
		slog.Warn("report queue full, rejecting submission", "job_id", id, "store_id", storeID)
		return uuid.Nil, ErrQueueFull
	}

	slog.Info("report job submitted", "job_id", id, "store_id", storeID)
	return id, nil
}

// Poll returns the job's current snapshot. Jobs not resident in memory are
// looked up in the archive (completed before a restart) and then in the
// status mirror; unknown IDs return ErrJobNotFound.
func (m *Manager) Poll(ctx context.Context, id uuid.UUID) (View, error) {
	if v, ok := m.reg.snapshot(id); ok {
		return v, nil
	}

	rep, err := m.archive.GetReport(ctx, id)
	if err == nil {
		return View{ID: id, StoreID: rep.StoreID, Status: models.JobStatusComplete, CSV: rep.Data}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return View{}, fmt.Errorf("lookup archived report: %w", err)
	}

	status, ok, err := m.cache.GetJobStatus(ctx, id)
	if err != nil {
		slog.Warn("job status cache lookup failed", "job_id", id, "error", err)
	}
	// A cached Complete without an archived artifact has nothing to serve.
	if ok && status != models.JobStatusComplete {
		return View{ID: id, Status: status}, nil
	}

	return View{}, ErrJobNotFound
}

// Close stops accepting work and waits for in-flight builds to finish.
func (m *Manager) Close() {
	close(m.tasks)
	m.wg.Wait()
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for t := range m.tasks {
		m.execute(t.id, t.storeID)
		m.metrics.JobsInFlight.Dec()
	}
}

// execute drives one job to a terminal state. Build failures mark the job
// Error; archive write failures are logged but do not fail a job whose
// artifact is already resident.
func (m *Manager) execute(id uuid.UUID, storeID string) {
	ctx := context.Background()

	if err := m.reg.transition(id, models.JobStatusRunning); err != nil {
		slog.Error("cannot start job", "job_id", id, "error", err)
		return
	}
	m.mirrorStatus(ctx, id, models.JobStatusRunning)
	slog.Info("report job running", "job_id", id, "store_id", storeID)

	started := time.Now()
	csvText, err := m.builder.Build(ctx, storeID)
	m.metrics.BuildDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		slog.Error("report build failed", "job_id", id, "store_id", storeID, "error", err)
		if terr := m.reg.transition(id, models.JobStatusError); terr != nil {
			slog.Error("cannot mark job as errored", "job_id", id, "error", terr)
		}
		m.metrics.JobsFailed.Inc()
		m.mirrorStatus(ctx, id, models.JobStatusError)
		return
	}

	if err := m.reg.complete(id, csvText); err != nil {
		slog.Error("cannot complete job", "job_id", id, "error", err)
		return
	}
	m.metrics.JobsCompleted.Inc()
	m.mirrorStatus(ctx, id, models.JobStatusComplete)
	slog.Info("report job completed", "job_id", id, "store_id", storeID)

	report := &models.Report{
		ReportID:    id,
		StoreID:     storeID,
		Data:        csvText,
		GeneratedAt: time.Now().UTC(),
	}
	if err := m.archive.SaveReport(ctx, report); err != nil {
		slog.Error("archiving completed report failed", "job_id", id, "error", err)
	}
}

func (m *Manager) mirrorStatus(ctx context.Context, id uuid.UUID, status string) {
	if err := m.cache.SetJobStatus(ctx, id, status, statusTTL); err != nil {
		slog.Warn("job status cache update failed", "job_id", id, "status", status, "error", err)
	}
}
