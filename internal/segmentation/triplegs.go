package segmentation

import (
	"fmt"
	"log"
	"sort"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// GenerateTriplegs extracts movement segments from positionfixes that
// already carry a staypoint assignment (run GenerateStaypoints first).
// A tripleg is a contiguous run of unassigned fixes between two staypoints
// or track boundaries; a recording gap longer than GapThreshold also ends
// the run.
//
// When a run is followed by a staypoint, the tripleg is extended to the
// staypoint's first fix: its FinishedAt and final path coordinate are taken
// from that fix. Together with the staypoint convention of
// GenerateStaypoints this keeps the per-user interval sequence gapless.
//
// Returns a copy of the positionfixes with TriplegID assigned and the
// tripleg table. Runs of a single fix at a track or gap boundary cannot
// form a line and are left unassigned.
func GenerateTriplegs(pfs []models.Positionfix, opts TriplegOptions) ([]models.Positionfix, []models.Tripleg, error) {
	if opts.Method == "" {
		opts.Method = "between_staypoints"
	}
	if opts.Method != "between_staypoints" {
		return nil, nil, fmt.Errorf("%w %q for tripleg generation", ErrUnknownMethod, opts.Method)
	}
	if err := validatePositionfixes(pfs); err != nil {
		return nil, nil, err
	}

	retPfs := make([]models.Positionfix, len(pfs))
	copy(retPfs, pfs)
	sort.SliceStable(retPfs, func(i, j int) bool {
		if retPfs[i].UserID != retPfs[j].UserID {
			return retPfs[i].UserID < retPfs[j].UserID
		}
		return retPfs[i].TrackedAt.Before(retPfs[j].TrackedAt)
	})
	for i := range retPfs {
		retPfs[i].TriplegID = nil
	}

	var retTpls []models.Tripleg
	skipped := 0
	for _, g := range groupPositionfixesByUser(retPfs) {
		fixes := retPfs[g.lo:g.hi]
		for lo := 0; lo < len(fixes); {
			if fixes[lo].StaypointID != nil {
				lo++
				continue
			}
			// extend the run over unassigned fixes, stopping at a recording gap
			hi := lo + 1
			for hi < len(fixes) && fixes[hi].StaypointID == nil {
				if opts.GapThreshold > 0 &&
					fixes[hi].TrackedAt.Sub(fixes[hi-1].TrackedAt) > opts.GapThreshold {
					break
				}
				hi++
			}

			path := make([]models.Point, 0, hi-lo+1)
			for k := lo; k < hi; k++ {
				path = append(path, fixes[k].Point())
			}
			finished := fixes[hi-1].TrackedAt

			// a following staypoint absorbs the first fix after the run;
			// close the tripleg on it
			followedByStaypoint := hi < len(fixes) && fixes[hi].StaypointID != nil &&
				(opts.GapThreshold <= 0 || fixes[hi].TrackedAt.Sub(fixes[hi-1].TrackedAt) <= opts.GapThreshold)
			if followedByStaypoint {
				path = append(path, fixes[hi].Point())
				finished = fixes[hi].TrackedAt
			}

			if len(path) < 2 {
				skipped++
				lo = hi
				continue
			}

			id := int64(len(retTpls))
			retTpls = append(retTpls, models.Tripleg{
				ID:         id,
				UserID:     fixes[lo].UserID,
				StartedAt:  fixes[lo].TrackedAt,
				FinishedAt: finished,
				Path:       path,
			})
			for k := lo; k < hi; k++ {
				tid := id
				fixes[k].TriplegID = &tid
			}
			lo = hi
		}
	}

	if skipped > 0 {
		log.Printf("[GenerateTriplegs] %d single-fix runs could not form a line and were left unassigned", skipped)
	}
	return retPfs, retTpls, nil
}
