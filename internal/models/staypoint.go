package models

import "time"

// Staypoint represents a place-time interval where a user stayed within a
// bounded radius
type Staypoint struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
	Longitude  float64   `json:"longitude" db:"longitude"` // mean of constituent fixes
	Latitude   float64   `json:"latitude" db:"latitude"`
	Elevation  *float64  `json:"elevation,omitempty" db:"elevation"`
	PointCount int       `json:"point_count,omitempty" db:"point_count"`

	// IsActivity marks the staypoint as a meaningful destination; set by
	// CreateActivityFlag and the anchor for trip boundaries
	IsActivity bool `json:"is_activity" db:"is_activity"`

	// LocationID is the id of the spatial cluster this staypoint belongs to,
	// produced by an external clustering collaborator
	LocationID *int64 `json:"location_id,omitempty" db:"location_id"`

	// An activity staypoint bounds two trips and holds both neighbor ids;
	// a staypoint absorbed inside a trip holds TripID instead.
	TripID     *int64 `json:"trip_id,omitempty" db:"trip_id"`
	PrevTripID *int64 `json:"prev_trip_id,omitempty" db:"prev_trip_id"`
	NextTripID *int64 `json:"next_trip_id,omitempty" db:"next_trip_id"`
}

// Point returns the staypoint center
func (s Staypoint) Point() Point {
	return Point{Lon: s.Longitude, Lat: s.Latitude}
}

// Duration returns the length of the stay
func (s Staypoint) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// StaypointsResponse represents a paginated response of staypoints
type StaypointsResponse struct {
	Data       []Staypoint `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// StaypointFilter represents filter parameters for querying staypoints
type StaypointFilter struct {
	UserID       int64 `form:"userId"`
	StartTime    int64 `form:"startTime"`
	EndTime      int64 `form:"endTime"`
	MinDuration  int64 `form:"minDuration"` // seconds
	ActivityOnly bool  `form:"activityOnly"`
	Page         int   `form:"page"`
	PageSize     int   `form:"pageSize"`
}
