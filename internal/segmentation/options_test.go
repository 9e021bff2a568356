package segmentation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"90m", 90 * time.Minute},
		{"1d", 24 * time.Hour},
		{"2d12h", 60 * time.Hour},
		{"0d", 0},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, in := range []string{"", "7", "3.5", "-1d", "1w", "dd", "d"} {
		_, err := ParseDuration(in)
		assert.True(t, errors.Is(err, ErrInvalidDuration), "%q should be rejected", in)
	}
}

func TestCreateActivityFlag(t *testing.T) {
	sps := []models.Staypoint{
		newSp(0, 1, 0, 10, false),
		newSp(1, 1, 10, 40, false),
	}
	ret, err := CreateActivityFlag(sps, DefaultActivityOptions())
	require.NoError(t, err)
	assert.False(t, ret[0].IsActivity)
	assert.True(t, ret[1].IsActivity)
	// input untouched
	assert.False(t, sps[1].IsActivity)

	ret, err = CreateActivityFlag(sps, ActivityOptions{TimeThreshold: 5 * time.Minute})
	require.NoError(t, err)
	assert.True(t, ret[0].IsActivity)

	// a zero threshold is honored, not swapped for the default
	ret, err = CreateActivityFlag(sps, ActivityOptions{})
	require.NoError(t, err)
	assert.True(t, ret[0].IsActivity)
	assert.True(t, ret[1].IsActivity)

	_, err = CreateActivityFlag(sps, ActivityOptions{Method: "freq"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestForEachParallelPropagatesFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := forEachParallel(8, 4, func(i int) error {
		if i == 2 || i == 6 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	err = forEachParallel(4, 4, func(i int) error {
		if i == 3 {
			panic("worker gone")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker gone")
}
