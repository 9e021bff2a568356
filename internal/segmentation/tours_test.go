package segmentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

func int64Ptr(v int64) *int64 { return &v }

// newTrip builds a trip between two staypoints; minutes are measured from
// the shared test base time.
func newTrip(id, userID int64, fromM, toM int, originSp, destSp *int64) models.Trip {
	return models.Trip{
		ID: id, UserID: userID,
		StartedAt: atMinute(fromM), FinishedAt: atMinute(toM),
		OriginStaypointID: originSp, DestinationStaypointID: destSp,
	}
}

func locSp(id int64, locationID int64) models.Staypoint {
	return models.Staypoint{ID: id, LocationID: int64Ptr(locationID)}
}

// locTourOpts builds conventional tour options in location mode.
func locTourOpts(sps []models.Staypoint) TourOptions {
	opts := DefaultTourOptions()
	opts.Staypoints = sps
	return opts
}

func TestGenerateToursSingleLoop(t *testing.T) {
	// home -> work -> shop -> home
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 1), locSp(2, 2), locSp(3, 0)}
	trips := []models.Trip{
		newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1)),
		newTrip(1, 1, 120, 180, int64Ptr(1), int64Ptr(2)),
		newTrip(2, 1, 240, 300, int64Ptr(2), int64Ptr(3)),
	}

	retTrips, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	require.Len(t, tours, 1)

	tour := tours[0]
	assert.Equal(t, int64(0), tour.ID)
	assert.Equal(t, int64(1), tour.UserID)
	assert.Equal(t, atMinute(0), tour.StartedAt)
	assert.Equal(t, atMinute(300), tour.FinishedAt)
	assert.Equal(t, []int64{0, 1, 2}, tour.TripIDs)
	require.NotNil(t, tour.OriginStaypointID)
	assert.Equal(t, int64(0), *tour.OriginStaypointID)
	require.NotNil(t, tour.DestinationStaypointID)
	assert.Equal(t, int64(3), *tour.DestinationStaypointID)
	require.NotNil(t, tour.LocationID)
	assert.Equal(t, int64(0), *tour.LocationID)

	for _, trip := range retTrips {
		assert.Equal(t, []int64{0}, trip.TourIDs)
	}
}

func TestGenerateToursGapTolerance(t *testing.T) {
	// the last trip does not start where the previous one ended
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 1), locSp(2, 2), locSp(3, 0), locSp(5, 3)}
	trips := []models.Trip{
		newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1)),
		newTrip(1, 1, 120, 180, int64Ptr(1), int64Ptr(2)),
		newTrip(2, 1, 240, 300, int64Ptr(5), int64Ptr(3)),
	}

	_, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	assert.Empty(t, tours)

	opts := locTourOpts(sps)
	opts.MaxNrGaps = 1
	_, tours, err = GenerateTours(trips, opts)
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, []int64{0, 1, 2}, tours[0].TripIDs)
}

func TestGenerateToursNested(t *testing.T) {
	// home -> A -> B -> A -> home: the A loop closes first, then the full
	// home loop around it
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 1), locSp(2, 2), locSp(3, 1), locSp(4, 0)}
	trips := []models.Trip{
		newTrip(0, 1, 0, 30, int64Ptr(0), int64Ptr(1)),
		newTrip(1, 1, 60, 90, int64Ptr(1), int64Ptr(2)),
		newTrip(2, 1, 120, 150, int64Ptr(2), int64Ptr(3)),
		newTrip(3, 1, 180, 210, int64Ptr(3), int64Ptr(4)),
	}

	retTrips, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	require.Len(t, tours, 2)

	assert.Equal(t, []int64{1, 2}, tours[0].TripIDs)
	assert.Equal(t, []int64{0, 1, 2, 3}, tours[1].TripIDs)

	// the shared trips list the inner tour first
	assert.Equal(t, []int64{1}, retTrips[0].TourIDs)
	assert.Equal(t, []int64{0, 1}, retTrips[1].TourIDs)
	assert.Equal(t, []int64{0, 1}, retTrips[2].TourIDs)
	assert.Equal(t, []int64{1}, retTrips[3].TourIDs)
}

func TestGenerateToursByDistance(t *testing.T) {
	// no location ids: closure by endpoint proximity
	p := func(lat float64) *models.Point { return &models.Point{Lon: 0, Lat: lat} }
	trips := []models.Trip{
		{ID: 0, UserID: 1, StartedAt: atMinute(0), FinishedAt: atMinute(60),
			OriginStaypointID: int64Ptr(0), DestinationStaypointID: int64Ptr(1),
			OriginGeom: p(0), DestinationGeom: p(0.01)},
		{ID: 1, UserID: 1, StartedAt: atMinute(120), FinishedAt: atMinute(180),
			OriginStaypointID: int64Ptr(1), DestinationStaypointID: int64Ptr(2),
			OriginGeom: p(0.01), DestinationGeom: p(0.00005)}, // ~5.6 m from the start
	}

	_, tours, err := GenerateTours(trips, DefaultTourOptions())
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, []int64{0, 1}, tours[0].TripIDs)
	assert.Nil(t, tours[0].LocationID)

	// moving the return point out of reach of both candidate origins breaks
	// the loop
	trips[1].DestinationGeom = p(0.02)
	_, tours, err = GenerateTours(trips, DefaultTourOptions())
	require.NoError(t, err)
	assert.Empty(t, tours)
}

func TestGenerateToursMissingGeometry(t *testing.T) {
	trips := []models.Trip{
		newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1)),
	}
	_, _, err := GenerateTours(trips, DefaultTourOptions())
	assert.ErrorIs(t, err, ErrMissingTripGeom)
}

func TestGenerateToursTimeBudget(t *testing.T) {
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 1), locSp(3, 0)}
	trips := []models.Trip{
		newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1)),
		newTrip(1, 1, 30*60, 31*60, int64Ptr(1), int64Ptr(3)),
	}

	// the round trip takes 31 hours, beyond the conventional budget
	_, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	assert.Empty(t, tours)

	opts := locTourOpts(sps)
	opts.MaxTime = 48 * time.Hour
	_, tours, err = GenerateTours(trips, opts)
	require.NoError(t, err)
	assert.Len(t, tours, 1)

	// a zero budget is honored and expires every candidate
	_, tours, err = GenerateTours(trips, TourOptions{Staypoints: sps})
	require.NoError(t, err)
	assert.Empty(t, tours)

	opts.MaxTime = -time.Hour
	_, _, err = GenerateTours(trips, opts)
	assert.ErrorIs(t, err, ErrInvalidMaxTime)
}

func TestGenerateToursSameLocationDifferentStaypoints(t *testing.T) {
	// the second trip leaves from a different staypoint than the first one
	// arrived at, but both are at the same location: no spatial gap, and the
	// loop closes through the shared home location
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 1), locSp(2, 1), locSp(3, 0)}
	trips := []models.Trip{
		newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1)),
		newTrip(1, 1, 120, 180, int64Ptr(2), int64Ptr(3)),
	}

	retTrips, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, []int64{0, 1}, tours[0].TripIDs)
	assert.Equal(t, []int64{0}, retTrips[0].TourIDs)
	assert.Equal(t, []int64{0}, retTrips[1].TourIDs)
}

func TestGenerateToursSingleTripLoop(t *testing.T) {
	// a trip that returns to its own origin location is already a tour
	sps := []models.Staypoint{locSp(0, 0), locSp(1, 0)}
	trips := []models.Trip{newTrip(0, 1, 0, 60, int64Ptr(0), int64Ptr(1))}

	retTrips, tours, err := GenerateTours(trips, locTourOpts(sps))
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, []int64{0}, tours[0].TripIDs)
	assert.Equal(t, []int64{0}, retTrips[0].TourIDs)

	// the same holds by endpoint distance
	orig := &models.Point{Lon: 0, Lat: 0}
	trips[0].OriginGeom = orig
	trips[0].DestinationGeom = orig
	_, tours, err = GenerateTours(trips, DefaultTourOptions())
	require.NoError(t, err)
	require.Len(t, tours, 1)
	assert.Equal(t, []int64{0}, tours[0].TripIDs)
}

func TestGenerateToursUnknownBoundaryCannotClose(t *testing.T) {
	// by distance: endpoints whose boundary activity is unknown carry
	// fallback tripleg coordinates, but a nil staypoint id never closes a
	// tour even when the coordinates line up
	p := func(lat float64) *models.Point { return &models.Point{Lon: 0, Lat: lat} }
	trips := []models.Trip{
		{ID: 0, UserID: 1, StartedAt: atMinute(0), FinishedAt: atMinute(60),
			OriginStaypointID: int64Ptr(0), DestinationStaypointID: nil,
			OriginGeom: p(0), DestinationGeom: p(0)},
	}
	_, tours, err := GenerateTours(trips, DefaultTourOptions())
	require.NoError(t, err)
	assert.Empty(t, tours)

	// a candidate with an unknown origin is skipped the same way
	trips = []models.Trip{
		{ID: 0, UserID: 1, StartedAt: atMinute(0), FinishedAt: atMinute(60),
			OriginStaypointID: nil, DestinationStaypointID: int64Ptr(1),
			OriginGeom: p(0), DestinationGeom: p(0.01)},
		{ID: 1, UserID: 1, StartedAt: atMinute(120), FinishedAt: atMinute(180),
			OriginStaypointID: int64Ptr(1), DestinationStaypointID: int64Ptr(2),
			OriginGeom: p(0.01), DestinationGeom: p(0)},
	}
	_, tours, err = GenerateTours(trips, DefaultTourOptions())
	require.NoError(t, err)
	assert.Empty(t, tours)
}

func TestGenerateToursUnknownMetric(t *testing.T) {
	_, _, err := GenerateTours(nil, TourOptions{Metric: spatial.Metric("manhattan")})
	assert.Error(t, err)
}
