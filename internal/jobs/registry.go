package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storewatch/storewatch/pkg/models"
)

// validTransitions encodes the monotonic job state machine. Terminal states
// have no entries, so nothing can ever leave Complete or Error.
var validTransitions = map[string][]string{
	models.JobStatusPending: {models.JobStatusRunning, models.JobStatusError},
	models.JobStatusRunning: {models.JobStatusComplete, models.JobStatusError},
}

// record is a job's slot in the registry. All access goes through registry
// methods, so a poll can never observe a half-written {status, csv} pair.
type record struct {
	id        uuid.UUID
	storeID   string
	status    string
	csv       string // set together with the Complete transition, never after
	createdAt time.Time
}

type registry struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*record
}

func newRegistry() *registry {
	return &registry{jobs: make(map[uuid.UUID]*record)}
}

func (r *registry) create(id uuid.UUID, storeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &record{
		id:        id,
		storeID:   storeID,
		status:    models.JobStatusPending,
		createdAt: time.Now().UTC(),
	}
}

func (r *registry) transition(id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitionLocked(id, status)
}

// complete moves the job to Complete and attaches its artifact in one
// critical section.
func (r *registry) complete(id uuid.UUID, csv string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.transitionLocked(id, models.JobStatusComplete); err != nil {
		return err
	}
	r.jobs[id].csv = csv
	return nil
}

func (r *registry) transitionLocked(id uuid.UUID, status string) error {
	rec, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	for _, allowed := range validTransitions[rec.status] {
		if allowed == status {
			rec.status = status
			return nil
		}
	}
	return fmt.Errorf("invalid job status transition: %s -> %s", rec.status, status)
}

// snapshot returns a consistent view of the job, or false if unknown.
func (r *registry) snapshot(id uuid.UUID) (View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.jobs[id]
	if !ok {
		return View{}, false
	}
	return View{ID: rec.id, StoreID: rec.storeID, Status: rec.status, CSV: rec.csv}, true
}
