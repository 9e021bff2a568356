package repository

import (
	"database/sql"
	"fmt"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// AnalysisTaskRepository handles database operations for analysis tasks
type AnalysisTaskRepository struct {
	db *sql.DB
}

// NewAnalysisTaskRepository creates a new analysis task repository
func NewAnalysisTaskRepository(db *sql.DB) *AnalysisTaskRepository {
	return &AnalysisTaskRepository{db: db}
}

const analysisTaskColumns = `id, skill_name, status, progress_percent, params_json,
	total_records, processed_records, failed_records,
	result_summary, error_message, created_at, started_at, completed_at`

func scanAnalysisTask(rows interface{ Scan(...interface{}) error }) (*models.AnalysisTask, error) {
	task := &models.AnalysisTask{}
	err := rows.Scan(
		&task.ID, &task.SkillName, &task.Status, &task.ProgressPercent, &task.ParamsJSON,
		&task.TotalRecords, &task.ProcessedRecords, &task.FailedRecords,
		&task.ResultSummary, &task.ErrorMessage, &task.CreatedAt, &task.StartedAt, &task.CompletedAt,
	)
	return task, err
}

// Create inserts a new analysis task and fills its id
func (r *AnalysisTaskRepository) Create(task *models.AnalysisTask) error {
	query := `
		INSERT INTO analysis_tasks (skill_name, status, progress_percent, params_json,
			total_records, processed_records, failed_records, result_summary, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		task.SkillName, task.Status, task.ProgressPercent, task.ParamsJSON,
		task.TotalRecords, task.ProcessedRecords, task.FailedRecords,
		task.ResultSummary, task.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	task.ID = id
	return nil
}

// GetByID retrieves an analysis task by ID
func (r *AnalysisTaskRepository) GetByID(id int64) (*models.AnalysisTask, error) {
	query := "SELECT " + analysisTaskColumns + " FROM analysis_tasks WHERE id = ?"

	task, err := scanAnalysisTask(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis task not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis task: %w", err)
	}
	return task, nil
}

// List retrieves analysis tasks with optional filters
func (r *AnalysisTaskRepository) List(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	query := "SELECT " + analysisTaskColumns + " FROM analysis_tasks WHERE 1=1"

	args := []interface{}{}
	if skillName != "" {
		query += " AND skill_name = ?"
		args = append(args, skillName)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.AnalysisTask
	for rows.Next() {
		task, err := scanAnalysisTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// UpdateProgress updates the progress counters of an analysis task
func (r *AnalysisTaskRepository) UpdateProgress(id int64, processed, total, failed int) error {
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100.0
	}

	query := `
		UPDATE analysis_tasks
		SET processed_records = ?, total_records = ?, failed_records = ?, progress_percent = ?
		WHERE id = ?
	`

	if _, err := r.db.Exec(query, processed, total, failed, percent, id); err != nil {
		return fmt.Errorf("failed to update task progress: %w", err)
	}
	return nil
}

// MarkAsRunning marks a task as running
func (r *AnalysisTaskRepository) MarkAsRunning(id int64) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, started_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.Exec(query, models.TaskStatusRunning, id); err != nil {
		return fmt.Errorf("failed to mark task as running: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a task as completed with a result summary
func (r *AnalysisTaskRepository) MarkAsCompleted(id int64, resultSummary string) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, progress_percent = 100, result_summary = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.Exec(query, models.TaskStatusCompleted, resultSummary, id); err != nil {
		return fmt.Errorf("failed to mark task as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a task as failed with an error message
func (r *AnalysisTaskRepository) MarkAsFailed(id int64, errorMessage string) error {
	query := `
		UPDATE analysis_tasks
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.Exec(query, models.TaskStatusFailed, errorMessage, id); err != nil {
		return fmt.Errorf("failed to mark task as failed: %w", err)
	}
	return nil
}
