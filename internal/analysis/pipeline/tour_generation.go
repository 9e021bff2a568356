package pipeline

import (
	"context"
	"database/sql"
	"log"

	"github.com/yhzhou/mobility-backend-go/internal/analysis"
	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
	"github.com/yhzhou/mobility-backend-go/internal/segmentation"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

func init() {
	analysis.RegisterAnalyzer("tour_generation", func(db *sql.DB) analysis.Analyzer {
		return NewTourGeneration(db)
	})
}

// TourGeneration detects tours over the trip table. Closure is by location
// id when the staypoint table carries location assignments (or when forced
// via the by_location param), by endpoint distance otherwise.
type TourGeneration struct {
	*analysis.BaseAnalyzer
	staypoints *repository.StaypointRepository
	trips      *repository.TripRepository
	tours      *repository.TourRepository
}

// NewTourGeneration creates the analyzer
func NewTourGeneration(db *sql.DB) *TourGeneration {
	return &TourGeneration{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "tour_generation"),
		staypoints:   repository.NewStaypointRepository(db),
		trips:        repository.NewTripRepository(db),
		tours:        repository.NewTourRepository(db),
	}
}

// Analyze implements analysis.Analyzer
func (a *TourGeneration) Analyze(ctx context.Context, taskID int64, params map[string]interface{}) error {
	if err := a.Tasks.MarkAsRunning(taskID); err != nil {
		return err
	}
	if err := a.run(ctx, taskID, params); err != nil {
		a.Tasks.MarkAsFailed(taskID, err.Error())
		return err
	}
	return nil
}

func (a *TourGeneration) run(ctx context.Context, taskID int64, params map[string]interface{}) error {
	opts := segmentation.TourOptions{}

	var err error
	if opts.MaxDist, err = floatParam(params, "max_dist", segmentation.DefaultMaxDist); err != nil {
		return err
	}
	metric, err := stringParam(params, "metric", string(spatial.MetricHaversine))
	if err != nil {
		return err
	}
	opts.Metric = spatial.Metric(metric)
	if opts.MaxTime, err = durationParam(params, "max_time", segmentation.DefaultMaxTime); err != nil {
		return err
	}
	if opts.MaxNrGaps, err = intParam(params, "max_nr_gaps", 0); err != nil {
		return err
	}

	sps, err := a.staypoints.GetAllOrdered()
	if err != nil {
		return err
	}
	byLocation, err := boolParam(params, "by_location", hasLocationIDs(sps))
	if err != nil {
		return err
	}
	if byLocation {
		opts.Staypoints = sps
	}

	trips, err := a.trips.GetAllOrdered()
	if err != nil {
		return err
	}
	if err := a.Tasks.UpdateProgress(taskID, 0, len(trips), 0); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	retTrips, tours, err := segmentation.GenerateTours(trips, opts)
	if err != nil {
		return err
	}

	err = withTx(a.DB, func(tx *sql.Tx) error {
		return a.tours.ReplaceAll(tx, tours, retTrips)
	})
	if err != nil {
		return err
	}

	if err := a.Tasks.UpdateProgress(taskID, len(trips), len(trips), 0); err != nil {
		return err
	}
	log.Printf("[TourGeneration] task %d: %d trips -> %d tours (by_location=%t)",
		taskID, len(trips), len(tours), byLocation)

	return a.Tasks.MarkAsCompleted(taskID, summaryJSON(map[string]int{
		"trips": len(trips),
		"tours": len(tours),
	}))
}

func hasLocationIDs(sps []models.Staypoint) bool {
	for _, sp := range sps {
		if sp.LocationID != nil {
			return true
		}
	}
	return false
}
