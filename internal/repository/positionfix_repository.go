package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// PositionfixRepository handles database operations for positionfixes
type PositionfixRepository struct {
	db *sql.DB
}

// NewPositionfixRepository creates a new positionfix repository
func NewPositionfixRepository(db *sql.DB) *PositionfixRepository {
	return &PositionfixRepository{db: db}
}

const positionfixColumns = `id, user_id, tracked_at, longitude, latitude,
	elevation, accuracy, staypoint_id, tripleg_id`

func scanPositionfix(rows interface{ Scan(...interface{}) error }) (models.Positionfix, error) {
	var p models.Positionfix
	err := rows.Scan(
		&p.ID, &p.UserID, &p.TrackedAt, &p.Longitude, &p.Latitude,
		&p.Elevation, &p.Accuracy, &p.StaypointID, &p.TriplegID,
	)
	return p, err
}

// GetPositionfixes retrieves positionfixes with filtering and pagination
func (r *PositionfixRepository) GetPositionfixes(filter models.PositionfixFilter) ([]models.Positionfix, int64, error) {
	query := "SELECT " + positionfixColumns + " FROM positionfixes"

	var conditions []string
	var args []interface{}

	if filter.UserID > 0 {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StartTime > 0 {
		conditions = append(conditions, "tracked_at >= ?")
		args = append(args, time.Unix(filter.StartTime, 0).UTC())
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "tracked_at <= ?")
		args = append(args, time.Unix(filter.EndTime, 0).UTC())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM positionfixes"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count positionfixes: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += " ORDER BY user_id, tracked_at LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query positionfixes: %w", err)
	}
	defer rows.Close()

	var pfs []models.Positionfix
	for rows.Next() {
		p, err := scanPositionfix(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan positionfix: %w", err)
		}
		pfs = append(pfs, p)
	}

	return pfs, total, rows.Err()
}

// GetAllOrdered loads every positionfix in (user_id, tracked_at) order, the
// ordering the segmentation pipeline works on
func (r *PositionfixRepository) GetAllOrdered() ([]models.Positionfix, error) {
	query := "SELECT " + positionfixColumns + " FROM positionfixes ORDER BY user_id, tracked_at"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query positionfixes: %w", err)
	}
	defer rows.Close()

	var pfs []models.Positionfix
	for rows.Next() {
		p, err := scanPositionfix(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan positionfix: %w", err)
		}
		pfs = append(pfs, p)
	}

	return pfs, rows.Err()
}

// BulkInsert inserts a batch of positionfixes inside one transaction
func (r *PositionfixRepository) BulkInsert(tx *sql.Tx, pfs []models.Positionfix) error {
	stmt, err := tx.Prepare(`
		INSERT INTO positionfixes (id, user_id, tracked_at, longitude, latitude, elevation, accuracy)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare positionfix insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pfs {
		if _, err := stmt.Exec(p.ID, p.UserID, p.TrackedAt, p.Longitude, p.Latitude, p.Elevation, p.Accuracy); err != nil {
			return fmt.Errorf("failed to insert positionfix %d: %w", p.ID, err)
		}
	}
	return nil
}

// UpdateAssignments writes the staypoint/tripleg assignment columns back
func (r *PositionfixRepository) UpdateAssignments(tx *sql.Tx, pfs []models.Positionfix) error {
	stmt, err := tx.Prepare("UPDATE positionfixes SET staypoint_id = ?, tripleg_id = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare assignment update: %w", err)
	}
	defer stmt.Close()

	for _, p := range pfs {
		if _, err := stmt.Exec(p.StaypointID, p.TriplegID, p.ID); err != nil {
			return fmt.Errorf("failed to update positionfix %d: %w", p.ID, err)
		}
	}
	return nil
}

// Count returns the total number of positionfixes
func (r *PositionfixRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM positionfixes").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count positionfixes: %w", err)
	}
	return count, nil
}

// normalizePage clamps pagination parameters to sane bounds
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	return page, pageSize
}
