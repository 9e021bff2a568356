package repository

import (
	"encoding/json"
	"fmt"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// The slice-valued columns (tripleg paths, constituent id lists, endpoint
// points) are persisted as JSON text.

func marshalIDs(ids []int64) (string, error) {
	if ids == nil {
		ids = []int64{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to marshal id list: %w", err)
	}
	return string(b), nil
}

func unmarshalIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal id list: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

func marshalPath(path []models.Point) (string, error) {
	if path == nil {
		path = []models.Point{}
	}
	b, err := json.Marshal(path)
	if err != nil {
		return "", fmt.Errorf("failed to marshal path: %w", err)
	}
	return string(b), nil
}

func unmarshalPath(s string) ([]models.Point, error) {
	var path []models.Point
	if err := json.Unmarshal([]byte(s), &path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path: %w", err)
	}
	return path, nil
}

func marshalPoint(p *models.Point) (interface{}, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point: %w", err)
	}
	return string(b), nil
}

func unmarshalPoint(s *string) (*models.Point, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	var p models.Point
	if err := json.Unmarshal([]byte(*s), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal point: %w", err)
	}
	return &p, nil
}
