package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a completed uptime/downtime report artifact. Data holds the
// serialized two-line CSV exactly as it is returned to clients; it never
// changes once the report is generated.
type Report struct {
	ReportID    uuid.UUID `db:"report_id"    json:"report_id"`
	StoreID     string    `db:"store_id"     json:"store_id"`
	Data        string    `db:"report_data"  json:"report_data"`
	GeneratedAt time.Time `db:"generated_at" json:"generated_at"`
}
