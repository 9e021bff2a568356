package pipeline

import (
	"context"
	"database/sql"
	"log"

	"github.com/yhzhou/mobility-backend-go/internal/analysis"
	"github.com/yhzhou/mobility-backend-go/internal/repository"
	"github.com/yhzhou/mobility-backend-go/internal/segmentation"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

func init() {
	analysis.RegisterAnalyzer("staypoint_detection", func(db *sql.DB) analysis.Analyzer {
		return NewStaypointDetection(db)
	})
}

// StaypointDetection runs sliding-window staypoint detection over the full
// positionfix table and replaces the staypoint table with the result.
// Existing tripleg assignments are cleared, since they refer to a staypoint
// layout that no longer exists.
type StaypointDetection struct {
	*analysis.BaseAnalyzer
	positionfixes *repository.PositionfixRepository
	staypoints    *repository.StaypointRepository
}

// NewStaypointDetection creates the analyzer
func NewStaypointDetection(db *sql.DB) *StaypointDetection {
	return &StaypointDetection{
		BaseAnalyzer:  analysis.NewBaseAnalyzer(db, "staypoint_detection"),
		positionfixes: repository.NewPositionfixRepository(db),
		staypoints:    repository.NewStaypointRepository(db),
	}
}

// Analyze implements analysis.Analyzer
func (a *StaypointDetection) Analyze(ctx context.Context, taskID int64, params map[string]interface{}) error {
	if err := a.Tasks.MarkAsRunning(taskID); err != nil {
		return err
	}
	if err := a.run(ctx, taskID, params); err != nil {
		a.Tasks.MarkAsFailed(taskID, err.Error())
		return err
	}
	return nil
}

func (a *StaypointDetection) run(ctx context.Context, taskID int64, params map[string]interface{}) error {
	opts := segmentation.StaypointOptions{}

	var err error
	if opts.DistThreshold, err = floatParam(params, "dist_threshold", segmentation.DefaultDistThreshold); err != nil {
		return err
	}
	if opts.TimeThreshold, err = durationParam(params, "time_threshold", segmentation.DefaultTimeThreshold); err != nil {
		return err
	}
	metric, err := stringParam(params, "metric", string(spatial.MetricHaversine))
	if err != nil {
		return err
	}
	opts.Metric = spatial.Metric(metric)
	if opts.NJobs, err = intParam(params, "n_jobs", 1); err != nil {
		return err
	}

	pfs, err := a.positionfixes.GetAllOrdered()
	if err != nil {
		return err
	}
	if err := a.Tasks.UpdateProgress(taskID, 0, len(pfs), 0); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	retPfs, sps, err := segmentation.GenerateStaypoints(pfs, opts)
	if err != nil {
		return err
	}

	err = withTx(a.DB, func(tx *sql.Tx) error {
		if err := a.staypoints.ReplaceAll(tx, sps); err != nil {
			return err
		}
		return a.positionfixes.UpdateAssignments(tx, retPfs)
	})
	if err != nil {
		return err
	}

	if err := a.Tasks.UpdateProgress(taskID, len(pfs), len(pfs), 0); err != nil {
		return err
	}
	log.Printf("[StaypointDetection] task %d: %d positionfixes -> %d staypoints", taskID, len(pfs), len(sps))

	return a.Tasks.MarkAsCompleted(taskID, summaryJSON(map[string]int{
		"positionfixes": len(pfs),
		"staypoints":    len(sps),
	}))
}
