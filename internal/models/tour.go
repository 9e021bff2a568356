package models

import "time"

// Tour represents a chronological, spatially closed sequence of trips that
// returns to its starting location within a time budget
type Tour struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`

	// Origin equals destination since the tour closes a loop.
	OriginStaypointID      *int64 `json:"origin_staypoint_id,omitempty" db:"origin_staypoint_id"`
	DestinationStaypointID *int64 `json:"destination_staypoint_id,omitempty" db:"destination_staypoint_id"`

	// LocationID of the shared start/end location, when tours were closed
	// via location ids rather than coordinates
	LocationID *int64 `json:"location_id,omitempty" db:"location_id"`

	// TripIDs lists the constituent trips, chronological. Persisted as a
	// JSON id array.
	TripIDs []int64 `json:"trip_ids" db:"trip_ids"`
}

// Duration returns the tour duration
func (t Tour) Duration() time.Duration {
	return t.FinishedAt.Sub(t.StartedAt)
}

// ToursResponse represents a paginated response of tours
type ToursResponse struct {
	Data       []Tour `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// TourFilter represents filter parameters for querying tours
type TourFilter struct {
	UserID    int64 `form:"userId"`
	StartTime int64 `form:"startTime"`
	EndTime   int64 `form:"endTime"`
	Page      int   `form:"page"`
	PageSize  int   `form:"pageSize"`
}
