package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/storewatch/storewatch/internal/api/response"
	"github.com/storewatch/storewatch/internal/jobs"
	"github.com/storewatch/storewatch/pkg/models"
)

// JobManager is the slice of the job manager the report handlers depend on.
type JobManager interface {
	Submit(ctx context.Context, storeID string) (uuid.UUID, error)
	Poll(ctx context.Context, id uuid.UUID) (jobs.View, error)
}

// NewTriggerReportHandler returns the handler for GET /trigger_report.
// It allocates a job and returns its ID without waiting for the build.
func NewTriggerReportHandler(mgr JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID := r.URL.Query().Get("store_id")
		if storeID == "" {
			response.Error(w, http.StatusBadRequest, "Missing 'store_id' query parameter.")
			return
		}

		id, err := mgr.Submit(r.Context(), storeID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"Could not schedule report generation. Please try again later.")
			return
		}

		response.JSON(w, http.StatusOK, map[string]string{"repid": id.String()})
	}
}

// NewGetReportHandler returns the handler for GET /get_report. The answer
// depends on the job's state: plain text while in progress, a JSON error if
// the build failed, and the CSV attachment once complete.
func NewGetReportHandler(mgr JobManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		repid := r.URL.Query().Get("repid")
		if repid == "" {
			response.Error(w, http.StatusBadRequest, "Missing 'repid' query parameter.")
			return
		}

		id, err := uuid.Parse(repid)
		if err != nil {
			// Job IDs are always UUIDs; anything else was never issued.
			response.Error(w, http.StatusNotFound, "No report found with ID '"+repid+"'.")
			return
		}

		view, err := mgr.Poll(r.Context(), id)
		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			response.Error(w, http.StatusNotFound, "No report found with ID '"+repid+"'.")
			return
		case err != nil:
			response.Error(w, http.StatusInternalServerError,
				"Could not look up the report. Please try again later.")
			return
		}

		switch view.Status {
		case models.JobStatusComplete:
			response.CSV(w, "report.csv", view.CSV)
		case models.JobStatusError:
			response.Error(w, http.StatusInternalServerError,
				"There was an error generating your report. Please try again later.")
		default: // Pending, Running
			response.Text(w, "Your report is still being generated. Check back shortly.")
		}
	}
}
