package segmentation

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

var testBase = time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)

func atMinute(m int) time.Time {
	return testBase.Add(time.Duration(m) * time.Minute)
}

func newFix(id, userID int64, m int, lon, lat float64) models.Positionfix {
	return models.Positionfix{ID: id, UserID: userID, TrackedAt: atMinute(m), Longitude: lon, Latitude: lat}
}

// stayMoveStayTrack is a user who lingers near lat 0, walks north, lingers
// near lat 0.04 and leaves again. Latitude degrees are used for distance
// control: 0.01 deg is roughly 1112 m.
func stayMoveStayTrack(userID int64, idOffset int64, minuteOffset int) []models.Positionfix {
	lats := []float64{
		0.0000, 0.0001, 0.0002, 0.0001, // cluster A
		0.0100, 0.0200, 0.0300, // movement
		0.0400, 0.0401, 0.0402, 0.0401, // cluster B
		0.0500, // leaving again
	}
	minutes := []int{0, 10, 20, 30, 32, 34, 36, 40, 50, 60, 70, 80}
	pfs := make([]models.Positionfix, len(lats))
	for i := range lats {
		pfs[i] = newFix(idOffset+int64(i), userID, minutes[i]+minuteOffset, 0, lats[i])
	}
	return pfs
}

func TestGenerateStaypointsZeroThresholdsEveryFixItsOwn(t *testing.T) {
	// zero thresholds are taken literally: any movement closes the window
	// immediately, each fix becomes its own staypoint, and the final close
	// lands exactly on the last fix
	var pfs []models.Positionfix
	for i := 0; i < 6; i++ {
		pfs = append(pfs, newFix(int64(i), 1, i*5, 0, float64(i)*0.01)) // ~1.1 km apart
	}

	retPfs, sps, err := GenerateStaypoints(pfs, StaypointOptions{DistThreshold: 0, TimeThreshold: 0})
	require.NoError(t, err)
	require.Len(t, sps, 6)

	for i, sp := range sps {
		assert.Equal(t, int64(i), sp.ID)
		assert.Equal(t, 1, sp.PointCount)
		assert.Equal(t, atMinute(i*5), sp.StartedAt)
		require.NotNil(t, retPfs[i].StaypointID)
		assert.Equal(t, int64(i), *retPfs[i].StaypointID)
	}
	// FinishedAt is the first fix outside the window, except for the
	// zero-duration tail staypoint
	for i := 0; i < 5; i++ {
		assert.Equal(t, atMinute((i+1)*5), sps[i].FinishedAt)
	}
	assert.Equal(t, atMinute(25), sps[5].StartedAt)
	assert.Equal(t, atMinute(25), sps[5].FinishedAt)

	// with every fix absorbed there is no movement left
	_, tpls, err := GenerateTriplegs(retPfs, TriplegOptions{})
	require.NoError(t, err)
	assert.Empty(t, tpls)

	// the same track under the conventional thresholds never lingers long
	// enough for a staypoint
	_, sps, err = GenerateStaypoints(pfs, DefaultStaypointOptions())
	require.NoError(t, err)
	assert.Empty(t, sps)
}

func TestGenerateStaypointsStayMoveStay(t *testing.T) {
	pfs := stayMoveStayTrack(1, 0, 0)

	retPfs, sps, err := GenerateStaypoints(pfs, DefaultStaypointOptions())
	require.NoError(t, err)
	require.Len(t, sps, 3)

	a, b, tail := sps[0], sps[1], sps[2]
	assert.Equal(t, 4, a.PointCount)
	assert.Equal(t, atMinute(0), a.StartedAt)
	assert.Equal(t, atMinute(32), a.FinishedAt)
	assert.InDelta(t, 0.0001, a.Latitude, 1e-9)

	assert.Equal(t, 4, b.PointCount)
	assert.Equal(t, atMinute(40), b.StartedAt)
	assert.Equal(t, atMinute(80), b.FinishedAt)
	assert.InDelta(t, 0.0401, b.Latitude, 1e-9)

	assert.Equal(t, 1, tail.PointCount)
	assert.Equal(t, tail.StartedAt, tail.FinishedAt)
	assert.Equal(t, atMinute(80), tail.StartedAt)

	// the movement fixes stay unassigned
	for _, i := range []int{4, 5, 6} {
		assert.Nil(t, retPfs[i].StaypointID)
	}
	require.NotNil(t, retPfs[7].StaypointID)
	assert.Equal(t, int64(1), *retPfs[7].StaypointID)
	require.NotNil(t, retPfs[11].StaypointID)
	assert.Equal(t, int64(2), *retPfs[11].StaypointID)
}

func TestGenerateStaypointsOpenTrailingWindow(t *testing.T) {
	// with a huge distance threshold the window never closes
	var pfs []models.Positionfix
	for i := 0; i < 8; i++ {
		pfs = append(pfs, newFix(int64(i), 1, i, 0, float64(i)*0.01))
	}
	retPfs, sps, err := GenerateStaypoints(pfs, StaypointOptions{DistThreshold: 1e7, TimeThreshold: time.Nanosecond})
	require.NoError(t, err)
	assert.Empty(t, sps)

	// everything is movement: one tripleg spanning the whole track
	_, tpls, err := GenerateTriplegs(retPfs, TriplegOptions{})
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.Len(t, tpls[0].Path, 8)
	assert.Equal(t, atMinute(0), tpls[0].StartedAt)
	assert.Equal(t, atMinute(7), tpls[0].FinishedAt)
}

func TestGenerateStaypointsGaplessIntervals(t *testing.T) {
	pfs := stayMoveStayTrack(1, 0, 0)
	retPfs, sps, err := GenerateStaypoints(pfs, DefaultStaypointOptions())
	require.NoError(t, err)
	retPfs, tpls, err := GenerateTriplegs(retPfs, TriplegOptions{})
	require.NoError(t, err)

	type interval struct{ start, end time.Time }
	var ivs []interval
	for _, sp := range sps {
		ivs = append(ivs, interval{sp.StartedAt, sp.FinishedAt})
	}
	for _, tpl := range tpls {
		ivs = append(ivs, interval{tpl.StartedAt, tpl.FinishedAt})
	}
	require.NotEmpty(t, ivs)
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start.Before(ivs[j].start) })
	assert.Equal(t, retPfs[0].TrackedAt, ivs[0].start)
	for i := 1; i < len(ivs); i++ {
		assert.Equal(t, ivs[i-1].end, ivs[i].start, "interval %d must start where %d ends", i, i-1)
	}
	assert.Equal(t, retPfs[len(retPfs)-1].TrackedAt, ivs[len(ivs)-1].end)
}

func TestGenerateStaypointsParallelDeterminism(t *testing.T) {
	var pfs []models.Positionfix
	for u := int64(1); u <= 5; u++ {
		pfs = append(pfs, stayMoveStayTrack(u, u*100, int(u))...)
	}

	seqOpts := DefaultStaypointOptions()
	parOpts := DefaultStaypointOptions()
	parOpts.NJobs = 4
	seqPfs, seqSps, err := GenerateStaypoints(pfs, seqOpts)
	require.NoError(t, err)
	parPfs, parSps, err := GenerateStaypoints(pfs, parOpts)
	require.NoError(t, err)

	assert.Equal(t, seqSps, parSps)
	assert.Equal(t, seqPfs, parPfs)

	// ids are dense and 0-based in user order
	for i, sp := range seqSps {
		assert.Equal(t, int64(i), sp.ID)
		if i > 0 {
			assert.LessOrEqual(t, seqSps[i-1].UserID, sp.UserID)
		}
	}
}

func TestGenerateStaypointsDoesNotMutateInput(t *testing.T) {
	pfs := stayMoveStayTrack(1, 0, 0)
	// shuffle a little so sorting has work to do
	pfs[0], pfs[5] = pfs[5], pfs[0]
	snapshot := make([]models.Positionfix, len(pfs))
	copy(snapshot, pfs)

	_, _, err := GenerateStaypoints(pfs, DefaultStaypointOptions())
	require.NoError(t, err)
	assert.Equal(t, snapshot, pfs)
}

func TestGenerateStaypointsContractViolations(t *testing.T) {
	valid := newFix(0, 1, 0, 0, 0)

	noTime := valid
	noTime.TrackedAt = time.Time{}
	_, _, err := GenerateStaypoints([]models.Positionfix{noTime}, StaypointOptions{})
	assert.ErrorIs(t, err, ErrMissingTimestamp)

	noGeom := valid
	noGeom.Latitude = math.NaN()
	_, _, err = GenerateStaypoints([]models.Positionfix{noGeom}, StaypointOptions{})
	assert.ErrorIs(t, err, ErrMissingGeometry)

	_, _, err = GenerateStaypoints([]models.Positionfix{valid}, StaypointOptions{Method: "dbscan"})
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, _, err = GenerateStaypoints([]models.Positionfix{valid}, StaypointOptions{Metric: "chebyshev"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chebyshev")
}
