package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a versioned schema change
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered, embedded migration list. New schema changes
// are appended with the next version number; applied versions are tracked
// in the migrations table.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_positionfixes",
		SQL: `
			CREATE TABLE IF NOT EXISTS positionfixes (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				tracked_at TIMESTAMP NOT NULL,
				longitude REAL NOT NULL,
				latitude REAL NOT NULL,
				elevation REAL,
				accuracy REAL,
				staypoint_id INTEGER,
				tripleg_id INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_positionfixes_user_time
				ON positionfixes(user_id, tracked_at);
		`,
	},
	{
		Version: 2,
		Name:    "create_staypoints_triplegs",
		SQL: `
			CREATE TABLE IF NOT EXISTS staypoints (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL,
				longitude REAL NOT NULL,
				latitude REAL NOT NULL,
				elevation REAL,
				point_count INTEGER NOT NULL DEFAULT 0,
				is_activity INTEGER NOT NULL DEFAULT 0,
				location_id INTEGER,
				trip_id INTEGER,
				prev_trip_id INTEGER,
				next_trip_id INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_staypoints_user_time
				ON staypoints(user_id, started_at);

			CREATE TABLE IF NOT EXISTS triplegs (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL,
				path_json TEXT NOT NULL,
				trip_id INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_triplegs_user_time
				ON triplegs(user_id, started_at);
		`,
	},
	{
		Version: 3,
		Name:    "create_trips_tours",
		SQL: `
			CREATE TABLE IF NOT EXISTS trips (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL,
				origin_staypoint_id INTEGER,
				destination_staypoint_id INTEGER,
				origin_geom_json TEXT,
				destination_geom_json TEXT,
				tripleg_ids_json TEXT NOT NULL,
				staypoint_ids_json TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_trips_user_time
				ON trips(user_id, started_at);

			CREATE TABLE IF NOT EXISTS tours (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				started_at TIMESTAMP NOT NULL,
				finished_at TIMESTAMP NOT NULL,
				origin_staypoint_id INTEGER,
				destination_staypoint_id INTEGER,
				location_id INTEGER,
				trip_ids_json TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS trip_tours (
				trip_id INTEGER NOT NULL,
				tour_id INTEGER NOT NULL,
				position INTEGER NOT NULL,
				PRIMARY KEY (trip_id, tour_id)
			);
		`,
	},
	{
		Version: 4,
		Name:    "create_analysis_tasks",
		SQL: `
			CREATE TABLE IF NOT EXISTS analysis_tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				skill_name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				progress_percent REAL NOT NULL DEFAULT 0,
				params_json TEXT NOT NULL DEFAULT '',
				total_records INTEGER NOT NULL DEFAULT 0,
				processed_records INTEGER NOT NULL DEFAULT 0,
				failed_records INTEGER NOT NULL DEFAULT 0,
				result_summary TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				started_at TIMESTAMP,
				completed_at TIMESTAMP
			);
		`,
	},
}

// RunMigrations applies all pending migrations in version order
func RunMigrations(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}

	return nil
}

func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func applyMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(m.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", m.Version, err)
	}

	if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}

	log.Printf("[Database] applied migration %d: %s", m.Version, m.Name)
	return nil
}
