package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// StaypointRepository handles database operations for staypoints
type StaypointRepository struct {
	db *sql.DB
}

// NewStaypointRepository creates a new staypoint repository
func NewStaypointRepository(db *sql.DB) *StaypointRepository {
	return &StaypointRepository{db: db}
}

const staypointColumns = `id, user_id, started_at, finished_at, longitude, latitude,
	elevation, point_count, is_activity, location_id, trip_id, prev_trip_id, next_trip_id`

func scanStaypoint(rows interface{ Scan(...interface{}) error }) (models.Staypoint, error) {
	var s models.Staypoint
	err := rows.Scan(
		&s.ID, &s.UserID, &s.StartedAt, &s.FinishedAt, &s.Longitude, &s.Latitude,
		&s.Elevation, &s.PointCount, &s.IsActivity, &s.LocationID,
		&s.TripID, &s.PrevTripID, &s.NextTripID,
	)
	return s, err
}

// GetStaypoints retrieves staypoints with filtering and pagination
func (r *StaypointRepository) GetStaypoints(filter models.StaypointFilter) ([]models.Staypoint, int64, error) {
	query := "SELECT " + staypointColumns + " FROM staypoints"

	var conditions []string
	var args []interface{}

	if filter.UserID > 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, time.Unix(filter.StartTime, 0).UTC())
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "finished_at <= ?")
		args = append(args, time.Unix(filter.EndTime, 0).UTC())
	}
	if filter.MinDuration > 0 {
		conditions = append(conditions, "(strftime('%s', finished_at) - strftime('%s', started_at)) >= ?")
		args = append(args, filter.MinDuration)
	}
	if filter.ActivityOnly {
		conditions = append(conditions, "is_activity = 1")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM staypoints"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count staypoints: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += " ORDER BY user_id, started_at LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query staypoints: %w", err)
	}
	defer rows.Close()

	var sps []models.Staypoint
	for rows.Next() {
		s, err := scanStaypoint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan staypoint: %w", err)
		}
		sps = append(sps, s)
	}

	return sps, total, rows.Err()
}

// GetAllOrdered loads every staypoint in (user_id, started_at) order
func (r *StaypointRepository) GetAllOrdered() ([]models.Staypoint, error) {
	query := "SELECT " + staypointColumns + " FROM staypoints ORDER BY user_id, started_at"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query staypoints: %w", err)
	}
	defer rows.Close()

	var sps []models.Staypoint
	for rows.Next() {
		s, err := scanStaypoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staypoint: %w", err)
		}
		sps = append(sps, s)
	}

	return sps, rows.Err()
}

// ReplaceAll deletes the staypoint table and writes a fresh result set.
// Staypoint detection recomputes ids densely, so replacement is the only
// write mode that keeps them consistent.
func (r *StaypointRepository) ReplaceAll(tx *sql.Tx, sps []models.Staypoint) error {
	if _, err := tx.Exec("DELETE FROM staypoints"); err != nil {
		return fmt.Errorf("failed to clear staypoints: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO staypoints (id, user_id, started_at, finished_at, longitude, latitude,
			elevation, point_count, is_activity, location_id, trip_id, prev_trip_id, next_trip_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare staypoint insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range sps {
		_, err := stmt.Exec(s.ID, s.UserID, s.StartedAt, s.FinishedAt, s.Longitude, s.Latitude,
			s.Elevation, s.PointCount, s.IsActivity, s.LocationID, s.TripID, s.PrevTripID, s.NextTripID)
		if err != nil {
			return fmt.Errorf("failed to insert staypoint %d: %w", s.ID, err)
		}
	}
	return nil
}

// UpdateTripLinks writes the trip back-references of each staypoint
func (r *StaypointRepository) UpdateTripLinks(tx *sql.Tx, sps []models.Staypoint) error {
	stmt, err := tx.Prepare(`
		UPDATE staypoints SET is_activity = ?, trip_id = ?, prev_trip_id = ?, next_trip_id = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare staypoint trip update: %w", err)
	}
	defer stmt.Close()

	for _, s := range sps {
		if _, err := stmt.Exec(s.IsActivity, s.TripID, s.PrevTripID, s.NextTripID, s.ID); err != nil {
			return fmt.Errorf("failed to update staypoint %d: %w", s.ID, err)
		}
	}
	return nil
}
