package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/yhzhou/mobility-backend-go/internal/analysis"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
)

// pipelineOrder is the canonical stage order of the segmentation pipeline
var pipelineOrder = []string{
	"staypoint_detection",
	"tripleg_extraction",
	"trip_generation",
	"tour_generation",
}

// AnalysisTaskService handles analysis task business logic
type AnalysisTaskService struct {
	repo *repository.AnalysisTaskRepository
	db   *sql.DB
}

// NewAnalysisTaskService creates a new analysis task service
func NewAnalysisTaskService(repo *repository.AnalysisTaskRepository, db *sql.DB) *AnalysisTaskService {
	return &AnalysisTaskService{
		repo: repo,
		db:   db,
	}
}

// CreateTask creates a new analysis task and runs its analyzer in the
// background
func (s *AnalysisTaskService) CreateTask(skillName string, params map[string]interface{}) (*models.AnalysisTask, error) {
	if !analysis.IsKnownSkill(skillName) {
		return nil, fmt.Errorf("unknown skill: %s", skillName)
	}

	paramsJSON := ""
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = string(b)
	}

	task := &models.AnalysisTask{
		SkillName:  skillName,
		Status:     models.TaskStatusPending,
		ParamsJSON: paramsJSON,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	go s.runAnalyzer(task.ID, skillName, params)

	return task, nil
}

// runAnalyzer executes an analyzer for an already created task
func (s *AnalysisTaskService) runAnalyzer(taskID int64, skillName string, params map[string]interface{}) {
	log.Printf("[AnalysisTask] task %d: starting %s", taskID, skillName)

	analyzer := analysis.GetAnalyzer(skillName, s.db)
	if analyzer == nil {
		s.repo.MarkAsFailed(taskID, fmt.Sprintf("unknown skill: %s", skillName))
		return
	}

	if err := analyzer.Analyze(context.Background(), taskID, params); err != nil {
		log.Printf("[AnalysisTask] task %d failed: %v", taskID, err)
		return
	}
	log.Printf("[AnalysisTask] task %d completed", taskID)
}

// GetTask retrieves a task by ID
func (s *AnalysisTaskService) GetTask(id int64) (*models.AnalysisTask, error) {
	return s.repo.GetByID(id)
}

// ListTasks retrieves tasks with optional filters
func (s *AnalysisTaskService) ListTasks(skillName string, status string, limit int, offset int) ([]*models.AnalysisTask, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(skillName, status, limit, offset)
}

// RunPipeline creates one task per pipeline stage and runs the stages
// sequentially in the background: a downstream stage only makes sense over
// the output of its predecessor.
func (s *AnalysisTaskService) RunPipeline(params map[string]interface{}) ([]int64, error) {
	var taskIDs []int64
	var tasks []*models.AnalysisTask

	for _, skillName := range pipelineOrder {
		paramsJSON := ""
		if params != nil {
			b, err := json.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("failed to serialize params: %w", err)
			}
			paramsJSON = string(b)
		}
		task := &models.AnalysisTask{
			SkillName:  skillName,
			Status:     models.TaskStatusPending,
			ParamsJSON: paramsJSON,
		}
		if err := s.repo.Create(task); err != nil {
			return nil, fmt.Errorf("failed to create task for %s: %w", skillName, err)
		}
		taskIDs = append(taskIDs, task.ID)
		tasks = append(tasks, task)
	}

	go func() {
		for i, task := range tasks {
			analyzer := analysis.GetAnalyzer(task.SkillName, s.db)
			if analyzer == nil {
				s.repo.MarkAsFailed(task.ID, fmt.Sprintf("unknown skill: %s", task.SkillName))
				return
			}
			log.Printf("[AnalysisTask] pipeline: starting %s (task %d)", task.SkillName, task.ID)
			if err := analyzer.Analyze(context.Background(), task.ID, params); err != nil {
				log.Printf("[AnalysisTask] pipeline aborted at %s (task %d): %v", task.SkillName, task.ID, err)
				// later stages would work on stale inputs, skip them
				for _, rest := range tasks[i+1:] {
					s.repo.MarkAsFailed(rest.ID, fmt.Sprintf("skipped: %s failed", task.SkillName))
				}
				return
			}
		}
		log.Printf("[AnalysisTask] pipeline completed")
	}()

	return taskIDs, nil
}
