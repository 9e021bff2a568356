package service

import (
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
)

// TourService handles business logic for tours
type TourService struct {
	repo *repository.TourRepository
}

// NewTourService creates a new tour service
func NewTourService(repo *repository.TourRepository) *TourService {
	return &TourService{repo: repo}
}

// GetTours retrieves tours with filtering and pagination
func (s *TourService) GetTours(filter models.TourFilter) ([]models.Tour, int64, error) {
	return s.repo.GetTours(filter)
}

// GetTourByID retrieves a single tour by ID
func (s *TourService) GetTourByID(id int64) (*models.Tour, error) {
	return s.repo.GetTourByID(id)
}
