package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	// one degree of latitude is ~111.2 km
	d := HaversineDistance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 100)

	// symmetric
	assert.InDelta(t, d, HaversineDistance(1, 0, 0, 0), 1e-6)

	// zero for identical points
	assert.Equal(t, 0.0, HaversineDistance(47.37, 8.54, 47.37, 8.54))
}

func TestEuclideanDistance(t *testing.T) {
	assert.Equal(t, 5.0, EuclideanDistance(0, 0, 3, 4))
	assert.Equal(t, 0.0, EuclideanDistance(1, 2, 1, 2))
}

func TestMetricDistance(t *testing.T) {
	d, err := MetricEuclidean.Distance(0, 0, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, 5.0, d)

	d, err = MetricHaversine.Distance(0, 0, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 111195, d, 100)

	_, err = Metric("chebyshev").Distance(0, 0, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chebyshev")
}
