package models

import "time"

// Trip represents a movement between two activities: one or more triplegs,
// possibly interspersed with non-activity staypoints
type Trip struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`   // start of first constituent
	FinishedAt time.Time `json:"finished_at" db:"finished_at"` // end of last constituent

	// Boundary activities. Nil when the trip starts/ends in a recording gap
	// or at the user's first/last record.
	OriginStaypointID      *int64 `json:"origin_staypoint_id,omitempty" db:"origin_staypoint_id"`
	DestinationStaypointID *int64 `json:"destination_staypoint_id,omitempty" db:"destination_staypoint_id"`

	// Endpoint coordinates. When a boundary staypoint is unknown the value
	// falls back to the first coordinate of the first tripleg (origin) or
	// the last coordinate of the last tripleg (destination).
	OriginGeom      *Point `json:"origin_geom,omitempty" db:"origin_geom"`
	DestinationGeom *Point `json:"destination_geom,omitempty" db:"destination_geom"`

	// Constituents, chronological. Persisted as JSON id arrays.
	TriplegIDs   []int64 `json:"tripleg_ids" db:"tripleg_ids"`
	StaypointIDs []int64 `json:"staypoint_ids,omitempty" db:"staypoint_ids"`

	// TourIDs lists every tour the trip belongs to, smallest/innermost
	// first. Empty when the trip is on no tour.
	TourIDs []int64 `json:"tour_ids,omitempty" db:"tour_ids"`
}

// Duration returns the trip duration
func (t Trip) Duration() time.Duration {
	return t.FinishedAt.Sub(t.StartedAt)
}

// TripsResponse represents a paginated response of trips
type TripsResponse struct {
	Data       []Trip `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// TripFilter represents filter parameters for querying trips
type TripFilter struct {
	UserID      int64 `form:"userId"`
	StartTime   int64 `form:"startTime"`
	EndTime     int64 `form:"endTime"`
	MinDuration int64 `form:"minDuration"` // seconds
	Page        int   `form:"page"`
	PageSize    int   `form:"pageSize"`
}
