package segmentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

func TestGenerateTriplegsBetweenStaypoints(t *testing.T) {
	pfs := stayMoveStayTrack(1, 0, 0)
	retPfs, _, err := GenerateStaypoints(pfs, DefaultStaypointOptions())
	require.NoError(t, err)

	retPfs, tpls, err := GenerateTriplegs(retPfs, TriplegOptions{})
	require.NoError(t, err)
	require.Len(t, tpls, 1)

	tpl := tpls[0]
	assert.Equal(t, int64(0), tpl.ID)
	assert.Equal(t, int64(1), tpl.UserID)
	// the run starts where cluster A finished and is extended to the first
	// fix of cluster B
	assert.Equal(t, atMinute(32), tpl.StartedAt)
	assert.Equal(t, atMinute(40), tpl.FinishedAt)
	require.Len(t, tpl.Path, 4)
	assert.InDelta(t, 0.01, tpl.Path[0].Lat, 1e-9)
	assert.InDelta(t, 0.04, tpl.Path[3].Lat, 1e-9)

	for _, i := range []int{4, 5, 6} {
		require.NotNil(t, retPfs[i].TriplegID)
		assert.Equal(t, int64(0), *retPfs[i].TriplegID)
	}
	// the absorbed staypoint fix belongs to the staypoint, not the tripleg
	assert.Nil(t, retPfs[7].TriplegID)
}

func TestGenerateTriplegsGapSplitsRun(t *testing.T) {
	var pfs []models.Positionfix
	for i, m := range []int{0, 1, 2, 60, 61, 62} {
		pfs = append(pfs, newFix(int64(i), 1, m, 0, float64(i)*0.01))
	}

	_, tpls, err := GenerateTriplegs(pfs, TriplegOptions{GapThreshold: 15 * time.Minute})
	require.NoError(t, err)
	require.Len(t, tpls, 2)
	assert.Equal(t, atMinute(0), tpls[0].StartedAt)
	assert.Equal(t, atMinute(2), tpls[0].FinishedAt)
	assert.Len(t, tpls[0].Path, 3)
	assert.Equal(t, atMinute(60), tpls[1].StartedAt)
	assert.Len(t, tpls[1].Path, 3)
}

func TestGenerateTriplegsSingleFixRunSkipped(t *testing.T) {
	pfs := []models.Positionfix{
		newFix(0, 1, 0, 0, 0),
		newFix(1, 1, 60, 0, 0.01),
		newFix(2, 1, 61, 0, 0.02),
	}
	retPfs, tpls, err := GenerateTriplegs(pfs, TriplegOptions{GapThreshold: 15 * time.Minute})
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.Nil(t, retPfs[0].TriplegID)
	require.NotNil(t, retPfs[1].TriplegID)
	assert.Equal(t, int64(0), *retPfs[1].TriplegID)
}

func TestGenerateTriplegsUnknownMethod(t *testing.T) {
	_, _, err := GenerateTriplegs(nil, TriplegOptions{Method: "smoothing"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
