package models

import "time"

// Tripleg represents a continuous movement segment between two staypoints
// (or track boundaries)
type Tripleg struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`

	// Path is the line geometry built from the constituent positionfixes,
	// ordered by time. Persisted as a JSON coordinate array.
	Path []Point `json:"path" db:"path"`

	// TripID is set by trip generation; nil only for triplegs that were
	// never run through it
	TripID *int64 `json:"trip_id,omitempty" db:"trip_id"`
}

// Duration returns the length of the movement segment
func (t Tripleg) Duration() time.Duration {
	return t.FinishedAt.Sub(t.StartedAt)
}

// TriplegsResponse represents a paginated response of triplegs
type TriplegsResponse struct {
	Data       []Tripleg `json:"data"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

// TriplegFilter represents filter parameters for querying triplegs
type TriplegFilter struct {
	UserID    int64 `form:"userId"`
	StartTime int64 `form:"startTime"`
	EndTime   int64 `form:"endTime"`
	Page      int   `form:"page"`
	PageSize  int   `form:"pageSize"`
}
