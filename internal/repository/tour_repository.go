package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// TourRepository handles database operations for tours
type TourRepository struct {
	db *sql.DB
}

// NewTourRepository creates a new tour repository
func NewTourRepository(db *sql.DB) *TourRepository {
	return &TourRepository{db: db}
}

const tourColumns = `id, user_id, started_at, finished_at,
	origin_staypoint_id, destination_staypoint_id, location_id, trip_ids_json`

func scanTour(rows interface{ Scan(...interface{}) error }) (models.Tour, error) {
	var t models.Tour
	var tripIDs string
	err := rows.Scan(
		&t.ID, &t.UserID, &t.StartedAt, &t.FinishedAt,
		&t.OriginStaypointID, &t.DestinationStaypointID, &t.LocationID, &tripIDs,
	)
	if err != nil {
		return t, err
	}
	if t.TripIDs, err = unmarshalIDs(tripIDs); err != nil {
		return t, err
	}
	return t, nil
}

// GetTours retrieves tours with filtering and pagination
func (r *TourRepository) GetTours(filter models.TourFilter) ([]models.Tour, int64, error) {
	query := "SELECT " + tourColumns + " FROM tours"

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

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM tours"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tours: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += " ORDER BY user_id, started_at LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tours: %w", err)
	}
	defer rows.Close()

	var tours []models.Tour
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, t)
	}

	return tours, total, rows.Err()
}

// GetTourByID retrieves a single tour by ID
func (r *TourRepository) GetTourByID(id int64) (*models.Tour, error) {
	query := "SELECT " + tourColumns + " FROM tours WHERE id = ?"

	t, err := scanTour(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tour: %w", err)
	}
	return &t, nil
}

// ReplaceAll deletes the tour table (and the trip_tours membership table)
// and writes a fresh result set. The position column records the order of
// each tour inside a trip's TourIDs list, innermost tour first.
func (r *TourRepository) ReplaceAll(tx *sql.Tx, tours []models.Tour, trips []models.Trip) error {
	if _, err := tx.Exec("DELETE FROM tours"); err != nil {
		return fmt.Errorf("failed to clear tours: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM trip_tours"); err != nil {
		return fmt.Errorf("failed to clear trip_tours: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tours (id, user_id, started_at, finished_at,
			origin_staypoint_id, destination_staypoint_id, location_id, trip_ids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare tour insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tours {
		tripIDs, err := marshalIDs(t.TripIDs)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(t.ID, t.UserID, t.StartedAt, t.FinishedAt,
			t.OriginStaypointID, t.DestinationStaypointID, t.LocationID, tripIDs)
		if err != nil {
			return fmt.Errorf("failed to insert tour %d: %w", t.ID, err)
		}
	}

	linkStmt, err := tx.Prepare("INSERT INTO trip_tours (trip_id, tour_id, position) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare trip_tours insert: %w", err)
	}
	defer linkStmt.Close()

	for _, trip := range trips {
		for pos, tourID := range trip.TourIDs {
			if _, err := linkStmt.Exec(trip.ID, tourID, pos); err != nil {
				return fmt.Errorf("failed to link trip %d to tour %d: %w", trip.ID, tourID, err)
			}
		}
	}
	return nil
}
