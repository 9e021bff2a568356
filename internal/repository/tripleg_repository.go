package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// TriplegRepository handles database operations for triplegs
type TriplegRepository struct {
	db *sql.DB
}

// NewTriplegRepository creates a new tripleg repository
func NewTriplegRepository(db *sql.DB) *TriplegRepository {
	return &TriplegRepository{db: db}
}

const triplegColumns = `id, user_id, started_at, finished_at, path_json, trip_id`

func scanTripleg(rows interface{ Scan(...interface{}) error }) (models.Tripleg, error) {
	var t models.Tripleg
	var pathJSON string
	if err := rows.Scan(&t.ID, &t.UserID, &t.StartedAt, &t.FinishedAt, &pathJSON, &t.TripID); err != nil {
		return t, err
	}
	path, err := unmarshalPath(pathJSON)
	if err != nil {
		return t, err
	}
	t.Path = path
	return t, nil
}

// GetTriplegs retrieves triplegs with filtering and pagination
func (r *TriplegRepository) GetTriplegs(filter models.TriplegFilter) ([]models.Tripleg, int64, error) {
	query := "SELECT " + triplegColumns + " FROM triplegs"

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

	countQuery := "SELECT COUNT(*) FROM triplegs"
	if len(conditions) > 0 {
		countQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count triplegs: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query += " ORDER BY user_id, started_at LIMIT ? OFFSET ?"
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query triplegs: %w", err)
	}
	defer rows.Close()

	var tpls []models.Tripleg
	for rows.Next() {
		t, err := scanTripleg(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tripleg: %w", err)
		}
		tpls = append(tpls, t)
	}

	return tpls, total, rows.Err()
}

// GetAllOrdered loads every tripleg in (user_id, started_at) order
func (r *TriplegRepository) GetAllOrdered() ([]models.Tripleg, error) {
	query := "SELECT " + triplegColumns + " FROM triplegs ORDER BY user_id, started_at"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query triplegs: %w", err)
	}
	defer rows.Close()

	var tpls []models.Tripleg
	for rows.Next() {
		t, err := scanTripleg(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tripleg: %w", err)
		}
		tpls = append(tpls, t)
	}

	return tpls, rows.Err()
}

// ReplaceAll deletes the tripleg table and writes a fresh result set
func (r *TriplegRepository) ReplaceAll(tx *sql.Tx, tpls []models.Tripleg) error {
	if _, err := tx.Exec("DELETE FROM triplegs"); err != nil {
		return fmt.Errorf("failed to clear triplegs: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO triplegs (id, user_id, started_at, finished_at, path_json, trip_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare tripleg insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range tpls {
		pathJSON, err := marshalPath(t.Path)
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(t.ID, t.UserID, t.StartedAt, t.FinishedAt, pathJSON, t.TripID); err != nil {
			return fmt.Errorf("failed to insert tripleg %d: %w", t.ID, err)
		}
	}
	return nil
}

// UpdateTripLinks writes the trip back-reference of each tripleg
func (r *TriplegRepository) UpdateTripLinks(tx *sql.Tx, tpls []models.Tripleg) error {
	stmt, err := tx.Prepare("UPDATE triplegs SET trip_id = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare tripleg trip update: %w", err)
	}
	defer stmt.Close()

	for _, t := range tpls {
		if _, err := stmt.Exec(t.TripID, t.ID); err != nil {
			return fmt.Errorf("failed to update tripleg %d: %w", t.ID, err)
		}
	}
	return nil
}
