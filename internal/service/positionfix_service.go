package service

import (
	"database/sql"
	"fmt"

	"github.com/yhzhou/mobility-backend-go/internal/database"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
)

// PositionfixService handles business logic for positionfixes
type PositionfixService struct {
	repo *repository.PositionfixRepository
}

// NewPositionfixService creates a new positionfix service
func NewPositionfixService(repo *repository.PositionfixRepository) *PositionfixService {
	return &PositionfixService{repo: repo}
}

// GetPositionfixes retrieves positionfixes with filtering and pagination
func (s *PositionfixService) GetPositionfixes(filter models.PositionfixFilter) ([]models.Positionfix, int64, error) {
	return s.repo.GetPositionfixes(filter)
}

// Ingest validates and bulk-inserts a batch of positionfixes
func (s *PositionfixService) Ingest(pfs []models.Positionfix) error {
	if len(pfs) == 0 {
		return fmt.Errorf("empty positionfix batch")
	}
	for i := range pfs {
		if pfs[i].TrackedAt.IsZero() {
			return fmt.Errorf("positionfix %d has no tracked_at timestamp", pfs[i].ID)
		}
		pfs[i].TrackedAt = pfs[i].TrackedAt.UTC()
	}

	return database.Transaction(func(tx *sql.Tx) error {
		return s.repo.BulkInsert(tx, pfs)
	})
}
