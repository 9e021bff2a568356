package service

import (
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
)

// TriplegService handles business logic for triplegs
type TriplegService struct {
	repo *repository.TriplegRepository
}

// NewTriplegService creates a new tripleg service
func NewTriplegService(repo *repository.TriplegRepository) *TriplegService {
	return &TriplegService{repo: repo}
}

// GetTriplegs retrieves triplegs with filtering and pagination
func (s *TriplegService) GetTriplegs(filter models.TriplegFilter) ([]models.Tripleg, int64, error) {
	return s.repo.GetTriplegs(filter)
}
