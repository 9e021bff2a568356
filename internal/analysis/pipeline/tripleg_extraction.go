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
	analysis.RegisterAnalyzer("tripleg_extraction", func(db *sql.DB) analysis.Analyzer {
		return NewTriplegExtraction(db)
	})
}

// TriplegExtraction extracts movement segments from the positionfix table.
// Staypoint detection must have run first so the staypoint_id column is
// populated.
type TriplegExtraction struct {
	*analysis.BaseAnalyzer
	positionfixes *repository.PositionfixRepository
	triplegs      *repository.TriplegRepository
}

// NewTriplegExtraction creates the analyzer
func NewTriplegExtraction(db *sql.DB) *TriplegExtraction {
	return &TriplegExtraction{
		BaseAnalyzer:  analysis.NewBaseAnalyzer(db, "tripleg_extraction"),
		positionfixes: repository.NewPositionfixRepository(db),
		triplegs:      repository.NewTriplegRepository(db),
	}
}

// Analyze implements analysis.Analyzer
func (a *TriplegExtraction) Analyze(ctx context.Context, taskID int64, params map[string]interface{}) error {
	if err := a.Tasks.MarkAsRunning(taskID); err != nil {
		return err
	}
	if err := a.run(ctx, taskID, params); err != nil {
		a.Tasks.MarkAsFailed(taskID, err.Error())
		return err
	}
	return nil
}

func (a *TriplegExtraction) run(ctx context.Context, taskID int64, params map[string]interface{}) error {
	opts := segmentation.TriplegOptions{}

	var err error
	if opts.GapThreshold, err = durationParam(params, "gap_threshold", segmentation.DefaultGapThreshold); err != nil {
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

	retPfs, tpls, err := segmentation.GenerateTriplegs(pfs, opts)
	if err != nil {
		return err
	}

	err = withTx(a.DB, func(tx *sql.Tx) error {
		if err := a.triplegs.ReplaceAll(tx, tpls); err != nil {
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
	log.Printf("[TriplegExtraction] task %d: %d positionfixes -> %d triplegs", taskID, len(pfs), len(tpls))

	return a.Tasks.MarkAsCompleted(taskID, summaryJSON(map[string]int{
		"positionfixes": len(pfs),
		"triplegs":      len(tpls),
	}))
}
