package models

const (
	JobStatusPending  = "Pending"
	JobStatusRunning  = "Running"
	JobStatusComplete = "Complete"
	JobStatusError    = "Error"
)

// JobTerminal reports whether a job status can no longer change.
func JobTerminal(status string) bool {
	return status == JobStatusComplete || status == JobStatusError
}
