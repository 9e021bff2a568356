package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// Metric selects the distance function for a dataset. The choice follows
// from the coordinate reference system of the input and must be made
// explicitly by the caller; it is never inferred from coordinate values.
type Metric string

const (
	// MetricHaversine treats coordinates as WGS84 lon/lat degrees
	MetricHaversine Metric = "haversine"
	// MetricEuclidean treats coordinates as planar (projected) x/y
	MetricEuclidean Metric = "euclidean"
)

// Valid reports whether the metric is a known one
func (m Metric) Valid() bool {
	return m == MetricHaversine || m == MetricEuclidean
}

// Distance returns the distance between (lon1, lat1) and (lon2, lat2) in
// the unit of the metric: meters for haversine, CRS units for euclidean
func (m Metric) Distance(lon1, lat1, lon2, lat2 float64) (float64, error) {
	switch m {
	case MetricHaversine:
		return HaversineDistance(lat1, lon1, lat2, lon2), nil
	case MetricEuclidean:
		return EuclideanDistance(lon1, lat1, lon2, lat2), nil
	default:
		return 0, fmt.Errorf("unknown distance metric %q", string(m))
	}
}

// HaversineDistance calculates the great-circle distance between two points
// in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// EuclideanDistance calculates the planar distance between two projected
// points, in CRS units
func EuclideanDistance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
