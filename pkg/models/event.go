package models

const (
	// StatusActive and StatusInactive are the only states the event log records.
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// TimeLayout is the textual timestamp format the event log stores. All
// timestamps are UTC at second granularity; the format sorts lexicographically,
// which the range queries rely on.
const TimeLayout = "2006-01-02 15:04:05"

// StatusEvent is one observation from the status log: a store was seen
// active or inactive at a point in time. The timestamp is kept in its stored
// textual form so that malformed rows can be skipped individually during
// timeline reconstruction instead of failing the whole query.
type StatusEvent struct {
	StoreID      string `db:"store_id"      json:"store_id"`
	TimestampUTC string `db:"timestamp_utc" json:"timestamp_utc"`
	Status       string `db:"status"        json:"status"`
}
