package pipeline

import (
	"context"
	"database/sql"
	"log"

	"github.com/yhzhou/mobility-backend-go/internal/analysis"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
	"github.com/yhzhou/mobility-backend-go/internal/segmentation"
)

func init() {
	analysis.RegisterAnalyzer("trip_generation", func(db *sql.DB) analysis.Analyzer {
		return NewTripGeneration(db)
	})
}

// TripGeneration flags activities and assembles staypoints and triplegs
// into trips. It replaces the trip table and rewrites the trip
// back-references on both input tables.
type TripGeneration struct {
	*analysis.BaseAnalyzer
	staypoints *repository.StaypointRepository
	triplegs   *repository.TriplegRepository
	trips      *repository.TripRepository
}

// NewTripGeneration creates the analyzer
func NewTripGeneration(db *sql.DB) *TripGeneration {
	return &TripGeneration{
		BaseAnalyzer: analysis.NewBaseAnalyzer(db, "trip_generation"),
		staypoints:   repository.NewStaypointRepository(db),
		triplegs:     repository.NewTriplegRepository(db),
		trips:        repository.NewTripRepository(db),
	}
}

// Analyze implements analysis.Analyzer
func (a *TripGeneration) Analyze(ctx context.Context, taskID int64, params map[string]interface{}) error {
	if err := a.Tasks.MarkAsRunning(taskID); err != nil {
		return err
	}
	if err := a.run(ctx, taskID, params); err != nil {
		a.Tasks.MarkAsFailed(taskID, err.Error())
		return err
	}
	return nil
}

func (a *TripGeneration) run(ctx context.Context, taskID int64, params map[string]interface{}) error {
	activityThreshold, err := durationParam(params, "activity_threshold", segmentation.DefaultActivityThreshold)
	if err != nil {
		return err
	}
	gapThreshold, err := durationParam(params, "gap_threshold", segmentation.DefaultGapThreshold)
	if err != nil {
		return err
	}
	addGeometry, err := boolParam(params, "add_geometry", true)
	if err != nil {
		return err
	}

	sps, err := a.staypoints.GetAllOrdered()
	if err != nil {
		return err
	}
	tpls, err := a.triplegs.GetAllOrdered()
	if err != nil {
		return err
	}
	total := len(sps) + len(tpls)
	if err := a.Tasks.UpdateProgress(taskID, 0, total, 0); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sps, err = segmentation.CreateActivityFlag(sps, segmentation.ActivityOptions{
		TimeThreshold: activityThreshold,
	})
	if err != nil {
		return err
	}

	retSps, retTpls, trips, err := segmentation.GenerateTrips(sps, tpls, segmentation.TripOptions{
		GapThreshold: gapThreshold,
		AddGeometry:  addGeometry,
	})
	if err != nil {
		return err
	}

	err = withTx(a.DB, func(tx *sql.Tx) error {
		if err := a.trips.ReplaceAll(tx, trips); err != nil {
			return err
		}
		if err := a.staypoints.UpdateTripLinks(tx, retSps); err != nil {
			return err
		}
		return a.triplegs.UpdateTripLinks(tx, retTpls)
	})
	if err != nil {
		return err
	}

	if err := a.Tasks.UpdateProgress(taskID, total, total, 0); err != nil {
		return err
	}
	log.Printf("[TripGeneration] task %d: %d staypoints + %d triplegs -> %d trips",
		taskID, len(sps), len(tpls), len(trips))

	return a.Tasks.MarkAsCompleted(taskID, summaryJSON(map[string]int{
		"staypoints": len(sps),
		"triplegs":   len(tpls),
		"trips":      len(trips),
	}))
}
