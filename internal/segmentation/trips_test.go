package segmentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

func newSp(id, userID int64, fromM, toM int, activity bool) models.Staypoint {
	return models.Staypoint{
		ID: id, UserID: userID,
		StartedAt: atMinute(fromM), FinishedAt: atMinute(toM),
		IsActivity: activity,
	}
}

func newTpl(id, userID int64, fromM, toM int, path ...models.Point) models.Tripleg {
	return models.Tripleg{
		ID: id, UserID: userID,
		StartedAt: atMinute(fromM), FinishedAt: atMinute(toM),
		Path: path,
	}
}

func TestGenerateTripsSimpleChain(t *testing.T) {
	// A --tpl0-- sp1 --tpl1-- B --tpl2-- C, with one short stop on the way
	sps := []models.Staypoint{
		newSp(0, 1, 0, 60, true),
		newSp(1, 1, 70, 75, false),
		newSp(2, 1, 85, 150, true),
		newSp(3, 1, 160, 200, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 1, 60, 70),
		newTpl(1, 1, 75, 85),
		newTpl(2, 1, 150, 160),
	}

	retSps, retTpls, trips, err := GenerateTrips(sps, tpls, TripOptions{})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	t0, t1 := trips[0], trips[1]
	assert.Equal(t, int64(0), t0.ID)
	require.NotNil(t, t0.OriginStaypointID)
	assert.Equal(t, int64(0), *t0.OriginStaypointID)
	require.NotNil(t, t0.DestinationStaypointID)
	assert.Equal(t, int64(2), *t0.DestinationStaypointID)
	assert.Equal(t, atMinute(60), t0.StartedAt)
	assert.Equal(t, atMinute(85), t0.FinishedAt)
	assert.Equal(t, []int64{0, 1}, t0.TriplegIDs)
	assert.Equal(t, []int64{1}, t0.StaypointIDs)

	require.NotNil(t, t1.OriginStaypointID)
	assert.Equal(t, int64(2), *t1.OriginStaypointID)
	require.NotNil(t, t1.DestinationStaypointID)
	assert.Equal(t, int64(3), *t1.DestinationStaypointID)
	assert.Equal(t, []int64{2}, t1.TriplegIDs)

	// every tripleg belongs to a trip
	for _, tpl := range retTpls {
		require.NotNil(t, tpl.TripID)
	}
	assert.Equal(t, int64(0), *retTpls[0].TripID)
	assert.Equal(t, int64(0), *retTpls[1].TripID)
	assert.Equal(t, int64(1), *retTpls[2].TripID)

	// intermediate staypoint absorbed, boundary activities linked
	require.NotNil(t, retSps[1].TripID)
	assert.Equal(t, int64(0), *retSps[1].TripID)
	assert.Nil(t, retSps[0].TripID)
	require.NotNil(t, retSps[0].NextTripID)
	assert.Equal(t, int64(0), *retSps[0].NextTripID)
	require.NotNil(t, retSps[2].PrevTripID)
	assert.Equal(t, int64(0), *retSps[2].PrevTripID)
	require.NotNil(t, retSps[2].NextTripID)
	assert.Equal(t, int64(1), *retSps[2].NextTripID)
	require.NotNil(t, retSps[3].PrevTripID)
	assert.Equal(t, int64(1), *retSps[3].PrevTripID)
}

func TestGenerateTripsIdempotent(t *testing.T) {
	sps := []models.Staypoint{
		newSp(0, 1, 0, 60, true),
		newSp(1, 1, 70, 75, false),
		newSp(2, 1, 85, 150, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 1, 60, 70),
		newTpl(1, 1, 75, 85),
	}
	sps1, tpls1, trips1, err := GenerateTrips(sps, tpls, TripOptions{})
	require.NoError(t, err)
	sps2, tpls2, trips2, err := GenerateTrips(sps1, tpls1, TripOptions{})
	require.NoError(t, err)

	assert.Equal(t, trips1, trips2)
	assert.Equal(t, sps1, sps2)
	assert.Equal(t, tpls1, tpls2)
}

func TestGenerateTripsBoundariesAndGap(t *testing.T) {
	// movement before the first activity, a tracking gap after tpl1, and a
	// regular trip at the end
	sps := []models.Staypoint{
		newSp(0, 1, 10, 60, true),
		newSp(1, 1, 120, 180, true),
		newSp(2, 1, 190, 240, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 1, 0, 10, models.Point{Lon: 0, Lat: 0}, models.Point{Lon: 0, Lat: 0.01}),
		newTpl(1, 1, 60, 70, models.Point{Lon: 0, Lat: 0.01}, models.Point{Lon: 0, Lat: 0.02}),
		newTpl(2, 1, 180, 190, models.Point{Lon: 0, Lat: 0.05}, models.Point{Lon: 0, Lat: 0.06}),
	}

	_, _, trips, err := GenerateTrips(sps, tpls, TripOptions{GapThreshold: 15 * time.Minute, AddGeometry: true})
	require.NoError(t, err)
	require.Len(t, trips, 3)

	// leading movement: unknown origin, endpoint geometry falls back to the
	// tripleg coordinates
	assert.Nil(t, trips[0].OriginStaypointID)
	require.NotNil(t, trips[0].DestinationStaypointID)
	assert.Equal(t, int64(0), *trips[0].DestinationStaypointID)
	require.NotNil(t, trips[0].OriginGeom)
	assert.Equal(t, models.Point{Lon: 0, Lat: 0}, *trips[0].OriginGeom)

	// the gap truncates the trip: destination unknown
	require.NotNil(t, trips[1].OriginStaypointID)
	assert.Equal(t, int64(0), *trips[1].OriginStaypointID)
	assert.Nil(t, trips[1].DestinationStaypointID)
	require.NotNil(t, trips[1].DestinationGeom)
	assert.Equal(t, models.Point{Lon: 0, Lat: 0.02}, *trips[1].DestinationGeom)

	// after the gap a fresh trip starts at the next activity
	require.NotNil(t, trips[2].OriginStaypointID)
	assert.Equal(t, int64(1), *trips[2].OriginStaypointID)
	require.NotNil(t, trips[2].DestinationStaypointID)
	assert.Equal(t, int64(2), *trips[2].DestinationStaypointID)
}

func TestGenerateTripsGapAfterActivityVoidsOrigin(t *testing.T) {
	// the activity at minute 70 closes the first trip; the gap that follows
	// it makes the next trip's origin unknown
	sps := []models.Staypoint{
		newSp(0, 1, 0, 60, true),
		newSp(1, 1, 70, 100, true),
		newSp(2, 1, 210, 260, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 1, 60, 70),
		newTpl(1, 1, 200, 210),
	}

	_, _, trips, err := GenerateTrips(sps, tpls, TripOptions{GapThreshold: 15 * time.Minute})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	require.NotNil(t, trips[0].DestinationStaypointID)
	assert.Equal(t, int64(1), *trips[0].DestinationStaypointID)
	assert.Nil(t, trips[1].OriginStaypointID)
	require.NotNil(t, trips[1].DestinationStaypointID)
	assert.Equal(t, int64(2), *trips[1].DestinationStaypointID)
}

func TestGenerateTripsActivityRunsCollapse(t *testing.T) {
	sps := []models.Staypoint{
		newSp(0, 1, 0, 10, true),
		newSp(1, 1, 10, 20, true), // only the last activity of the run matters
		newSp(2, 1, 30, 40, true),
		newSp(3, 1, 40, 50, false),
		newSp(4, 1, 50, 60, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 1, 20, 30),
	}

	retSps, _, trips, err := GenerateTrips(sps, tpls, TripOptions{})
	require.NoError(t, err)
	require.Len(t, trips, 1)

	require.NotNil(t, trips[0].OriginStaypointID)
	assert.Equal(t, int64(1), *trips[0].OriginStaypointID)
	require.NotNil(t, trips[0].DestinationStaypointID)
	assert.Equal(t, int64(2), *trips[0].DestinationStaypointID)

	// the staypoint-only span between sp2 and sp4 has no movement and forms
	// no trip
	assert.Nil(t, retSps[3].TripID)
}

func TestGenerateTripsMultiUserDenseIDs(t *testing.T) {
	sps := []models.Staypoint{
		newSp(0, 2, 0, 60, true),
		newSp(1, 2, 70, 120, true),
		newSp(2, 1, 0, 60, true),
		newSp(3, 1, 70, 120, true),
	}
	tpls := []models.Tripleg{
		newTpl(0, 2, 60, 70),
		newTpl(1, 1, 60, 70),
	}

	_, _, trips, err := GenerateTrips(sps, tpls, TripOptions{})
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, int64(0), trips[0].ID)
	assert.Equal(t, int64(1), trips[0].UserID)
	assert.Equal(t, int64(1), trips[1].ID)
	assert.Equal(t, int64(2), trips[1].UserID)
}

func TestGenerateTripsInvalidInterval(t *testing.T) {
	sps := []models.Staypoint{{ID: 0, UserID: 1, StartedAt: atMinute(10), FinishedAt: atMinute(0)}}
	_, _, _, err := GenerateTrips(sps, nil, TripOptions{})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}
