package segmentation

import (
	"fmt"
	"sort"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// timeline entry kinds. Gap terminators are virtual entries inserted into
// the per-user timeline; user changes terminate trips through the per-user
// partition itself.
type entryKind int

const (
	entryStaypoint entryKind = iota
	entryTripleg
	entryGap
)

// timelineEntry is one element of the per-user chronological timeline the
// trip state machine runs over.
type timelineEntry struct {
	kind       entryKind
	id         int64
	userID     int64
	startedAt  time.Time
	finishedAt time.Time
	activity   bool // always false for triplegs and gaps
}

// GenerateTrips assembles staypoints and triplegs into trips: contiguous
// runs of movement and non-activity staypoints between two activity
// staypoints, a recording gap longer than GapThreshold, or a user boundary.
// GapThreshold is taken literally; at zero, any positive recording gap ends
// the trip.
//
// Returns copies of the staypoints (with TripID for absorbed staypoints and
// PrevTripID/NextTripID for boundary activities), the triplegs (with
// TripID), and the generated trip table. A trip always contains at least
// one tripleg; movement before the first and after the last activity forms
// trips with unknown origin/destination (nil boundary ids).
func GenerateTrips(sps []models.Staypoint, tpls []models.Tripleg, opts TripOptions) ([]models.Staypoint, []models.Tripleg, []models.Trip, error) {
	if err := validateIntervals(sps); err != nil {
		return nil, nil, nil, err
	}
	if err := validateTriplegIntervals(tpls); err != nil {
		return nil, nil, nil, err
	}

	retSps := make([]models.Staypoint, len(sps))
	copy(retSps, sps)
	retTpls := make([]models.Tripleg, len(tpls))
	copy(retTpls, tpls)

	spIdx := make(map[int64]int, len(retSps))
	for i := range retSps {
		retSps[i].TripID = nil
		retSps[i].PrevTripID = nil
		retSps[i].NextTripID = nil
		spIdx[retSps[i].ID] = i
	}
	tplIdx := make(map[int64]int, len(retTpls))
	for i := range retTpls {
		retTpls[i].TripID = nil
		tplIdx[retTpls[i].ID] = i
	}

	timeline := buildTimeline(retSps, retTpls, opts.GapThreshold)

	var trips []models.Trip
	for lo := 0; lo < len(timeline); {
		hi := lo + 1
		for hi < len(timeline) && timeline[hi].userID == timeline[lo].userID {
			hi++
		}
		trips = append(trips, generateTripsUser(timeline[lo:hi])...)
		lo = hi
	}

	// dense final ids, then write the id back-references
	for i := range trips {
		trips[i].ID = int64(i)
	}
	for i := range trips {
		t := &trips[i]
		for _, id := range t.TriplegIDs {
			tripID := t.ID
			retTpls[tplIdx[id]].TripID = &tripID
		}
		for _, id := range t.StaypointIDs {
			tripID := t.ID
			retSps[spIdx[id]].TripID = &tripID
		}
		if t.DestinationStaypointID != nil {
			tripID := t.ID
			retSps[spIdx[*t.DestinationStaypointID]].PrevTripID = &tripID
		}
		if t.OriginStaypointID != nil {
			tripID := t.ID
			retSps[spIdx[*t.OriginStaypointID]].NextTripID = &tripID
		}
		if opts.AddGeometry {
			attachTripGeometry(t, retSps, retTpls, spIdx, tplIdx)
		}
	}
	return retSps, retTpls, trips, nil
}

// buildTimeline merges staypoints and triplegs into one chronological
// timeline sorted by (user_id, started_at) and inserts a virtual gap
// terminator wherever tracking is missing for longer than gapThreshold.
// The terminator's timestamp is the midpoint of the gap; its position in
// the timeline is structural, so ordering stays well-defined even when the
// midpoint coincides with a record boundary.
func buildTimeline(sps []models.Staypoint, tpls []models.Tripleg, gapThreshold time.Duration) []timelineEntry {
	entries := make([]timelineEntry, 0, len(sps)+len(tpls))
	for _, sp := range sps {
		entries = append(entries, timelineEntry{
			kind:       entryStaypoint,
			id:         sp.ID,
			userID:     sp.UserID,
			startedAt:  sp.StartedAt,
			finishedAt: sp.FinishedAt,
			activity:   sp.IsActivity,
		})
	}
	for _, tpl := range tpls {
		entries = append(entries, timelineEntry{
			kind:       entryTripleg,
			id:         tpl.ID,
			userID:     tpl.UserID,
			startedAt:  tpl.StartedAt,
			finishedAt: tpl.FinishedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].userID != entries[j].userID {
			return entries[i].userID < entries[j].userID
		}
		if !entries[i].startedAt.Equal(entries[j].startedAt) {
			return entries[i].startedAt.Before(entries[j].startedAt)
		}
		return entries[i].finishedAt.Before(entries[j].finishedAt)
	})

	withGaps := make([]timelineEntry, 0, len(entries))
	for i, e := range entries {
		withGaps = append(withGaps, e)
		if i+1 < len(entries) && entries[i+1].userID == e.userID {
			if entries[i+1].startedAt.Sub(e.finishedAt) > gapThreshold {
				mid := e.finishedAt.Add(entries[i+1].startedAt.Sub(e.finishedAt) / 2)
				withGaps = append(withGaps, timelineEntry{
					kind:       entryGap,
					userID:     e.userID,
					startedAt:  mid,
					finishedAt: mid,
				})
			}
		}
	}
	return withGaps
}

// generateTripsUser runs the boundary state machine over one user's
// timeline. Trip ids are assigned later, globally.
func generateTripsUser(timeline []timelineEntry) []models.Trip {
	var trips []models.Trip
	var origin *int64 // nil = unknown activity
	var stack []timelineEntry
	inTrip := false

	nextActivity := func(i int) bool {
		return i+1 < len(timeline) && timeline[i+1].activity
	}

	for i, e := range timeline {
		if e.kind == entryGap {
			// a gap ends the open trip with unknown destination and voids
			// any known origin for the next one
			if inTrip && stackHasTripleg(stack) {
				trips = append(trips, buildTrip(e.userID, origin, nil, stack))
			}
			origin = nil
			stack = nil
			inTrip = false
			continue
		}

		if !inTrip {
			if e.activity && nextActivity(i) {
				// several activities in a row collapse; only the transition
				// into movement matters
				continue
			}
			if e.activity {
				id := e.id
				origin = &id
				inTrip = true
				continue
			}
			inTrip = true
		}

		if e.activity {
			if !stackHasTripleg(stack) {
				// span without movement, drop it and restart from here
				id := e.id
				origin = &id
				stack = nil
				continue
			}
			id := e.id
			trips = append(trips, buildTrip(e.userID, origin, &id, stack))
			origin = &id
			stack = nil
			inTrip = false
			continue
		}
		stack = append(stack, e)
	}

	// movement after the last activity: trip with unknown destination
	if len(stack) > 0 && stackHasTripleg(stack) {
		trips = append(trips, buildTrip(timeline[0].userID, origin, nil, stack))
	}
	return trips
}

func stackHasTripleg(stack []timelineEntry) bool {
	for _, e := range stack {
		if e.kind == entryTripleg {
			return true
		}
	}
	return false
}

func buildTrip(userID int64, origin, destination *int64, stack []timelineEntry) models.Trip {
	t := models.Trip{
		UserID:                 userID,
		StartedAt:              stack[0].startedAt,
		FinishedAt:             stack[len(stack)-1].finishedAt,
		OriginStaypointID:      origin,
		DestinationStaypointID: destination,
	}
	for _, e := range stack {
		switch e.kind {
		case entryTripleg:
			t.TriplegIDs = append(t.TriplegIDs, e.id)
		case entryStaypoint:
			t.StaypointIDs = append(t.StaypointIDs, e.id)
		}
	}
	return t
}

// attachTripGeometry sets the trip endpoint coordinates: the boundary
// staypoint's center, or the first/last coordinate of the first/last
// tripleg when the boundary activity is unknown.
func attachTripGeometry(t *models.Trip, sps []models.Staypoint, tpls []models.Tripleg, spIdx, tplIdx map[int64]int) {
	if t.OriginStaypointID != nil {
		p := sps[spIdx[*t.OriginStaypointID]].Point()
		t.OriginGeom = &p
	} else if len(t.TriplegIDs) > 0 {
		path := tpls[tplIdx[t.TriplegIDs[0]]].Path
		if len(path) > 0 {
			p := path[0]
			t.OriginGeom = &p
		}
	}
	if t.DestinationStaypointID != nil {
		p := sps[spIdx[*t.DestinationStaypointID]].Point()
		t.DestinationGeom = &p
	} else if len(t.TriplegIDs) > 0 {
		path := tpls[tplIdx[t.TriplegIDs[len(t.TriplegIDs)-1]]].Path
		if len(path) > 0 {
			p := path[len(path)-1]
			t.DestinationGeom = &p
		}
	}
}

func validateTriplegIntervals(tpls []models.Tripleg) error {
	for _, tpl := range tpls {
		if tpl.StartedAt.IsZero() || tpl.FinishedAt.IsZero() {
			return fmt.Errorf("%w: tripleg %d of user %d", ErrMissingTimestamp, tpl.ID, tpl.UserID)
		}
		if tpl.FinishedAt.Before(tpl.StartedAt) {
			return fmt.Errorf("%w: tripleg %d of user %d", ErrInvalidInterval, tpl.ID, tpl.UserID)
		}
	}
	return nil
}
