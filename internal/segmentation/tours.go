package segmentation

import (
	"fmt"
	"log"
	"sort"

	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

// candidate is one slot of the per-user tour search stack: either a trip
// (by index into the user's trip slice) or a marker for a tracking gap
// between two trips.
type candidate struct {
	gap bool
	idx int
}

// GenerateTours finds tours: journeys that start and end at the same place,
// composed of one or more consecutive trips. With Staypoints carrying
// location ids, two endpoints are the same place when their location ids are
// equal; otherwise when their geometries lie within MaxDist of each other.
// The same place test drives both the continuity check between consecutive
// trips and the closure check; a trip that returns to its own origin already
// forms a one-trip tour. Endpoints whose boundary activity is unknown (nil
// staypoint id) are never the same place as anything.
//
// A tour may contain at most MaxNrGaps tracking gaps and span at most
// MaxTime. Tours can be nested: an inner loop closes first and its trips
// stay available for an enclosing tour, so a trip's TourIDs lists the tours
// it belongs to innermost first.
//
// Returns a copy of the trips with TourIDs filled and the tour table.
func GenerateTours(trips []models.Trip, opts TourOptions) ([]models.Trip, []models.Tour, error) {
	if opts.Metric == "" {
		opts.Metric = spatial.MetricHaversine
	}
	if !opts.Metric.Valid() {
		return nil, nil, fmt.Errorf("unknown distance metric %q", string(opts.Metric))
	}
	if opts.MaxTime < 0 {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidMaxTime, opts.MaxTime)
	}

	retTrips := make([]models.Trip, len(trips))
	copy(retTrips, trips)
	sort.SliceStable(retTrips, func(i, j int) bool {
		if retTrips[i].UserID != retTrips[j].UserID {
			return retTrips[i].UserID < retTrips[j].UserID
		}
		return retTrips[i].StartedAt.Before(retTrips[j].StartedAt)
	})
	for i := range retTrips {
		retTrips[i].TourIDs = nil
	}

	// location lookup only when closing by location id
	var locByStaypoint map[int64]*int64
	if len(opts.Staypoints) > 0 {
		locByStaypoint = make(map[int64]*int64, len(opts.Staypoints))
		for _, sp := range opts.Staypoints {
			locByStaypoint[sp.ID] = sp.LocationID
		}
	} else {
		for _, t := range retTrips {
			if t.OriginGeom == nil || t.DestinationGeom == nil {
				return nil, nil, fmt.Errorf("%w: trip %d of user %d", ErrMissingTripGeom, t.ID, t.UserID)
			}
		}
	}

	var retTours []models.Tour
	for lo := 0; lo < len(retTrips); {
		hi := lo + 1
		for hi < len(retTrips) && retTrips[hi].UserID == retTrips[lo].UserID {
			hi++
		}
		tours, err := generateToursUser(retTrips[lo:hi], locByStaypoint, opts, int64(len(retTours)))
		if err != nil {
			return nil, nil, err
		}
		retTours = append(retTours, tours...)
		lo = hi
	}

	if len(retTours) == 0 {
		log.Printf("[GenerateTours] no tours found for the given parameters")
	}
	return retTrips, retTours, nil
}

// generateToursUser walks one user's trips in time order with a candidate
// stack. nextID is the id of the first tour this user may produce; ids stay
// dense across users because users are processed in order.
func generateToursUser(trips []models.Trip, locByStaypoint map[int64]*int64, opts TourOptions, nextID int64) ([]models.Tour, error) {
	var tours []models.Tour
	var cand []candidate

	for i := range trips {
		if len(cand) > 0 {
			prev := cand[len(cand)-1]
			if !prev.gap {
				cont, err := samePlace(
					trips[prev.idx].DestinationStaypointID, trips[prev.idx].DestinationGeom,
					trips[i].OriginStaypointID, trips[i].OriginGeom,
					locByStaypoint, opts)
				if err != nil {
					return nil, err
				}
				if !cont {
					// the trip does not start where the previous one ended
					if opts.MaxNrGaps > 0 {
						cand = append(cand, candidate{gap: true})
					} else {
						cand = nil
					}
				}
			}
		}
		cand = append(cand, candidate{idx: i})

		if trips[i].DestinationStaypointID == nil {
			// an unknown destination activity cannot close any tour
			continue
		}

		// walk from the current trip backward; the current trip alone may
		// already be a loop
		gaps := 0
		for p := len(cand) - 1; p >= 0; p-- {
			if cand[p].gap {
				gaps++
				if gaps > opts.MaxNrGaps {
					cand = cand[p+1:]
					break
				}
				continue
			}
			start := &trips[cand[p].idx]
			if trips[i].FinishedAt.Sub(start.StartedAt) > opts.MaxTime {
				// too old to ever close a tour with this or any later trip
				cand = cand[p+1:]
				break
			}
			closes, err := samePlace(
				start.OriginStaypointID, start.OriginGeom,
				trips[i].DestinationStaypointID, trips[i].DestinationGeom,
				locByStaypoint, opts)
			if err != nil {
				return nil, err
			}
			if closes {
				tour := buildTour(trips, cand[p:], nextID+int64(len(tours)), locByStaypoint)
				for _, c := range cand[p:] {
					if !c.gap {
						trips[c.idx].TourIDs = append(trips[c.idx].TourIDs, tour.ID)
					}
				}
				tours = append(tours, tour)
				break
			}
		}
	}
	return tours, nil
}

// samePlace reports whether two trip endpoints are the same place. Endpoints
// without a boundary staypoint never match, in either mode. With location
// annotations the comparison is by location id; otherwise by endpoint
// distance <= MaxDist.
func samePlace(aID *int64, aGeom *models.Point, bID *int64, bGeom *models.Point, locByStaypoint map[int64]*int64, opts TourOptions) (bool, error) {
	if aID == nil || bID == nil {
		return false, nil
	}
	if locByStaypoint != nil {
		locA := locByStaypoint[*aID]
		locB := locByStaypoint[*bID]
		return locA != nil && locB != nil && *locA == *locB, nil
	}
	dist, err := opts.Metric.Distance(aGeom.Lon, aGeom.Lat, bGeom.Lon, bGeom.Lat)
	if err != nil {
		return false, err
	}
	return dist <= opts.MaxDist, nil
}

func buildTour(trips []models.Trip, span []candidate, id int64, locByStaypoint map[int64]*int64) models.Tour {
	first := &trips[span[0].idx]
	last := &trips[span[len(span)-1].idx]
	tour := models.Tour{
		ID:                     id,
		UserID:                 first.UserID,
		StartedAt:              first.StartedAt,
		FinishedAt:             last.FinishedAt,
		OriginStaypointID:      first.OriginStaypointID,
		DestinationStaypointID: last.DestinationStaypointID,
	}
	if locByStaypoint != nil && first.OriginStaypointID != nil {
		tour.LocationID = locByStaypoint[*first.OriginStaypointID]
	}
	for _, c := range span {
		if !c.gap {
			tour.TripIDs = append(tour.TripIDs, trips[c.idx].ID)
		}
	}
	return tour
}
