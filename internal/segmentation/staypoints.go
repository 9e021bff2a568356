package segmentation

import (
	"fmt"
	"math"
	"sort"

	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

// GenerateStaypoints detects staypoints in a stream of positionfixes with a
// sliding window (Li et al. 2008): the window grows until the distance from
// its first fix exceeds DistThreshold; if the elapsed time then exceeds
// TimeThreshold, the window becomes a staypoint.
//
// Thresholds are taken literally: with both at zero, every movement closes
// the window immediately and each fix becomes its own staypoint, while
// arbitrarily large thresholds yield none. DefaultStaypointOptions carries
// the conventional values.
//
// Returns a copy of the positionfixes with StaypointID assigned for every
// fix absorbed into a staypoint (nil for moving fixes), and the staypoint
// table. A staypoint's FinishedAt is the tracked_at of the first fix outside
// its window, so the staypoint/tripleg intervals of a user partition the
// tracked time without gaps.
//
// When a staypoint closes exactly at a user's last fix, a zero-duration
// staypoint is emitted at that final fix so the tail of the track is
// anchored; an open trailing window emits nothing and stays tripleg
// material.
func GenerateStaypoints(pfs []models.Positionfix, opts StaypointOptions) ([]models.Positionfix, []models.Staypoint, error) {
	if opts.Method == "" {
		opts.Method = "sliding"
	}
	if opts.Method != "sliding" {
		return nil, nil, fmt.Errorf("%w %q for staypoint generation", ErrUnknownMethod, opts.Method)
	}
	if opts.Metric == "" {
		opts.Metric = spatial.MetricHaversine
	}
	if !opts.Metric.Valid() {
		return nil, nil, fmt.Errorf("unknown distance metric %q", string(opts.Metric))
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
		retPfs[i].StaypointID = nil
		retPfs[i].TriplegID = nil
	}

	groups := groupPositionfixesByUser(retPfs)

	// Per-user results are kept in user order so the final dense ids do not
	// depend on worker completion order.
	results := make([][]userStaypoint, len(groups))
	err := forEachParallel(len(groups), opts.NJobs, func(g int) error {
		sps, err := slidingWindowUser(retPfs[groups[g].lo:groups[g].hi], opts)
		if err != nil {
			return fmt.Errorf("user %d: %w", groups[g].userID, err)
		}
		results[g] = sps
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var retSps []models.Staypoint
	for g, sps := range results {
		for _, usp := range sps {
			sp := usp.sp
			sp.ID = int64(len(retSps))
			for _, k := range usp.fixIdx {
				id := sp.ID
				retPfs[groups[g].lo+k].StaypointID = &id
			}
			retSps = append(retSps, sp)
		}
	}
	return retPfs, retSps, nil
}

// userStaypoint is a staypoint of one user before global id assignment,
// together with the window of fix indices it absorbed (relative to the
// user's slice).
type userStaypoint struct {
	sp     models.Staypoint
	fixIdx []int
}

func slidingWindowUser(fixes []models.Positionfix, opts StaypointOptions) ([]userStaypoint, error) {
	var out []userStaypoint
	n := len(fixes)

	i := 0
	for i < n {
		j := i + 1
		for j < n {
			dist, err := opts.Metric.Distance(
				fixes[i].Longitude, fixes[i].Latitude,
				fixes[j].Longitude, fixes[j].Latitude,
			)
			if err != nil {
				return nil, err
			}
			if dist > opts.DistThreshold {
				if fixes[j].TrackedAt.Sub(fixes[i].TrackedAt) > opts.TimeThreshold {
					out = append(out, buildStaypoint(fixes, i, j))
					if j == n-1 {
						// window closed exactly at the last fix: anchor the
						// tail with a zero-duration staypoint
						out = append(out, buildStaypoint(fixes, j, j+1))
					}
				}
				i = j
				break
			}
			j++
		}
		if j == n {
			// trailing open window, never crossed the distance threshold
			break
		}
	}
	return out, nil
}

// buildStaypoint aggregates fixes [i, j) into a staypoint. FinishedAt is the
// tracked_at of fix j when it exists, else of the last absorbed fix
// (zero-duration tail staypoint).
func buildStaypoint(fixes []models.Positionfix, i, j int) userStaypoint {
	var sumLon, sumLat, sumEle float64
	var nEle int
	idx := make([]int, 0, j-i)
	for k := i; k < j; k++ {
		sumLon += fixes[k].Longitude
		sumLat += fixes[k].Latitude
		if fixes[k].Elevation != nil {
			sumEle += *fixes[k].Elevation
			nEle++
		}
		idx = append(idx, k)
	}
	count := float64(j - i)

	finished := fixes[j-1].TrackedAt
	if j < len(fixes) {
		finished = fixes[j].TrackedAt
	}

	sp := models.Staypoint{
		UserID:     fixes[i].UserID,
		StartedAt:  fixes[i].TrackedAt,
		FinishedAt: finished,
		Longitude:  sumLon / count,
		Latitude:   sumLat / count,
		PointCount: j - i,
	}
	if nEle == j-i {
		ele := sumEle / count
		sp.Elevation = &ele
	}
	return userStaypoint{sp: sp, fixIdx: idx}
}

func validatePositionfixes(pfs []models.Positionfix) error {
	for _, p := range pfs {
		if p.TrackedAt.IsZero() {
			return fmt.Errorf("%w: positionfix %d of user %d", ErrMissingTimestamp, p.ID, p.UserID)
		}
		if math.IsNaN(p.Longitude) || math.IsNaN(p.Latitude) ||
			math.IsInf(p.Longitude, 0) || math.IsInf(p.Latitude, 0) {
			return fmt.Errorf("%w: positionfix %d of user %d", ErrMissingGeometry, p.ID, p.UserID)
		}
	}
	return nil
}

// userGroup is a [lo, hi) slice range of one user's records in a
// (user_id, time)-sorted slice.
type userGroup struct {
	userID int64
	lo, hi int
}

func groupPositionfixesByUser(pfs []models.Positionfix) []userGroup {
	var groups []userGroup
	for lo := 0; lo < len(pfs); {
		hi := lo + 1
		for hi < len(pfs) && pfs[hi].UserID == pfs[lo].UserID {
			hi++
		}
		groups = append(groups, userGroup{userID: pfs[lo].UserID, lo: lo, hi: hi})
		lo = hi
	}
	return groups
}
