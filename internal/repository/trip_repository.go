package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `t.id, t.user_id, t.started_at, t.finished_at,
	t.origin_staypoint_id, t.destination_staypoint_id,
	t.origin_geom_json, t.destination_geom_json,
	t.tripleg_ids_json, t.staypoint_ids_json`

func scanTrip(rows interface{ Scan(...interface{}) error }) (models.Trip, error) {
	var t models.Trip
	var originGeom, destGeom *string
	var triplegIDs, staypointIDs string

	err := rows.Scan(
		&t.ID, &t.UserID, &t.StartedAt, &t.FinishedAt,
		&t.OriginStaypointID, &t.DestinationStaypointID,
		&originGeom, &destGeom, &triplegIDs, &staypointIDs,
	)
	if err != nil {
		return t, err
	}

	if t.OriginGeom, err = unmarshalPoint(originGeom); err != nil {
		return t, err
	}
	if t.DestinationGeom, err = unmarshalPoint(destGeom); err != nil {
		return t, err
	}
	if t.TriplegIDs, err = unmarshalIDs(triplegIDs); err != nil {
		return t, err
	}
	if t.StaypointIDs, err = unmarshalIDs(staypointIDs); err != nil {
		return t, err
	}
	return t, nil
}

// GetTrips retrieves trips with filtering and pagination. Tour membership
// is joined in from the trip_tours table.
func (r *TripRepository) GetTrips(filter models.TripFilter) ([]models.Trip, int64, error) {
	query := "SELECT " + tripColumns + " FROM trips t"

	var conditions []string
	var args []interface{}

	if filter.UserID > 0 {
		conditions = append(conditions, "t.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "t.started_at >= ?")
		args = append(args, time.Unix(filter.StartTime, 0).UTC())
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "t.finished_at <= ?")
		args = append(args, time.Unix(filter.EndTime, 0).UTC())
	}
	if filter.MinDuration > 0 {
		conditions = append(conditions, "(strftime('%s', t.finished_at) - strftime('%s', t.started_at)) >= ?")
		args = append(args, filter.MinDuration)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM trips t"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += " ORDER BY t.user_id, t.started_at LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachTourIDs(trips); err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// GetTripByID retrieves a single trip by ID
func (r *TripRepository) GetTripByID(id int64) (*models.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips t WHERE t.id = ?"

	t, err := scanTrip(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	trips := []models.Trip{t}
	if err := r.attachTourIDs(trips); err != nil {
		return nil, err
	}
	return &trips[0], nil
}

// GetAllOrdered loads every trip in (user_id, started_at) order, including
// tour membership
func (r *TripRepository) GetAllOrdered() ([]models.Trip, error) {
	query := "SELECT " + tripColumns + " FROM trips t ORDER BY t.user_id, t.started_at"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachTourIDs(trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// attachTourIDs fills TourIDs from trip_tours, preserving the discovery
// order recorded in the position column
func (r *TripRepository) attachTourIDs(trips []models.Trip) error {
	if len(trips) == 0 {
		return nil
	}

	rows, err := r.db.Query("SELECT trip_id, tour_id FROM trip_tours ORDER BY trip_id, position")
	if err != nil {
		return fmt.Errorf("failed to query trip_tours: %w", err)
	}
	defer rows.Close()

	byTrip := make(map[int64][]int64)
	for rows.Next() {
		var tripID, tourID int64
		if err := rows.Scan(&tripID, &tourID); err != nil {
			return fmt.Errorf("failed to scan trip_tours: %w", err)
		}
		byTrip[tripID] = append(byTrip[tripID], tourID)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range trips {
		trips[i].TourIDs = byTrip[trips[i].ID]
	}
	return nil
}

// ReplaceAll deletes the trip table and writes a fresh result set
func (r *TripRepository) ReplaceAll(tx *sql.Tx, trips []models.Trip) error {
	if _, err := tx.Exec("DELETE FROM trips"); err != nil {
		return fmt.Errorf("failed to clear trips: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO trips (id, user_id, started_at, finished_at,
			origin_staypoint_id, destination_staypoint_id,
			origin_geom_json, destination_geom_json,
			tripleg_ids_json, staypoint_ids_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trip insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		originGeom, err := marshalPoint(t.OriginGeom)
		if err != nil {
			return err
		}
		destGeom, err := marshalPoint(t.DestinationGeom)
		if err != nil {
			return err
		}
		triplegIDs, err := marshalIDs(t.TriplegIDs)
		if err != nil {
			return err
		}
		staypointIDs, err := marshalIDs(t.StaypointIDs)
		if err != nil {
			return err
		}

		_, err = stmt.Exec(t.ID, t.UserID, t.StartedAt, t.FinishedAt,
			t.OriginStaypointID, t.DestinationStaypointID,
			originGeom, destGeom, triplegIDs, staypointIDs)
		if err != nil {
			return fmt.Errorf("failed to insert trip %d: %w", t.ID, err)
		}
	}
	return nil
}
