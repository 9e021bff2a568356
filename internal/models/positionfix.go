package models

import "time"

// Positionfix represents a single raw GPS observation
type Positionfix struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	TrackedAt time.Time `json:"tracked_at" db:"tracked_at"` // timezone-aware
	Longitude float64   `json:"longitude" db:"longitude"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Elevation *float64  `json:"elevation,omitempty" db:"elevation"`
	Accuracy  *float64  `json:"accuracy,omitempty" db:"accuracy"`

	// Assignment written back by the segmentation pipeline.
	// Nil means the fix is not part of any staypoint / tripleg.
	StaypointID *int64 `json:"staypoint_id,omitempty" db:"staypoint_id"`
	TriplegID   *int64 `json:"tripleg_id,omitempty" db:"tripleg_id"`
}

// Point returns the fix coordinates
func (p Positionfix) Point() Point {
	return Point{Lon: p.Longitude, Lat: p.Latitude}
}

// PositionfixesResponse represents a paginated response of positionfixes
type PositionfixesResponse struct {
	Data       []Positionfix `json:"data"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// PositionfixFilter represents filter parameters for querying positionfixes
type PositionfixFilter struct {
	UserID    int64 `form:"userId"`
	StartTime int64 `form:"startTime"` // Unix timestamp
	EndTime   int64 `form:"endTime"`   // Unix timestamp
	Page      int   `form:"page"`
	PageSize  int   `form:"pageSize"`
}
