// Package segmentation implements the trip and tour segmentation pipeline:
// positionfixes -> (staypoints, triplegs) -> trips -> tours.
//
// All functions are pure batch operations over in-memory slices. Inputs are
// never mutated; every stage returns enriched copies of its inputs together
// with the newly created entities. Identifiers assigned by a stage are dense
// and 0-based, in (user_id, time) order.
package segmentation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/models"
	"github.com/yhzhou/mobility-backend-go/internal/spatial"
)

// Contract violation errors. All of them abort a stage before any output is
// built, so a partially annotated table is never returned.
var (
	ErrMissingGeometry  = errors.New("positionfix has no valid geometry")
	ErrMissingTimestamp = errors.New("record has no valid timestamp")
	ErrUnknownMethod    = errors.New("unknown method")
	ErrInvalidInterval  = errors.New("finished_at is before started_at")
	ErrInvalidMaxTime   = errors.New("max_time must not be negative")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrMissingTripGeom  = errors.New("trips need endpoint geometry for distance-based tour detection")
)

// Default thresholds, matching the conventions of travel-survey processing.
// They are applied through the Default*Options constructors only: zero
// values in a hand-built option struct are honored literally (a zero
// threshold is a real threshold, not a request for the default).
const (
	DefaultDistThreshold     = 100.0            // meters
	DefaultTimeThreshold     = 5 * time.Minute  // staypoint detection
	DefaultActivityThreshold = 15 * time.Minute // activity flag
	DefaultGapThreshold      = 15 * time.Minute // trip/tripleg splitting
	DefaultMaxDist           = 100.0            // meters, tour closure
	DefaultMaxTime           = 24 * time.Hour   // tour time budget
)

// StaypointOptions configures GenerateStaypoints. Zero thresholds are
// honored: any movement then closes the window, degenerating to one
// staypoint per fix.
type StaypointOptions struct {
	Method        string         // "sliding" (default)
	Metric        spatial.Metric // haversine (default) or euclidean for projected input
	DistThreshold float64        // meters (CRS units for euclidean)
	TimeThreshold time.Duration
	NJobs         int // per-user parallelism; <= 1 runs sequentially
}

// DefaultStaypointOptions returns the conventional staypoint detection
// parameters (100 m, 5 min, sequential).
func DefaultStaypointOptions() StaypointOptions {
	return StaypointOptions{
		Method:        "sliding",
		Metric:        spatial.MetricHaversine,
		DistThreshold: DefaultDistThreshold,
		TimeThreshold: DefaultTimeThreshold,
		NJobs:         1,
	}
}

// TriplegOptions configures GenerateTriplegs
type TriplegOptions struct {
	Method       string        // "between_staypoints" (default)
	GapThreshold time.Duration // split movement runs at recording gaps; 0 disables
}

// DefaultTriplegOptions returns the conventional tripleg extraction
// parameters (15 min gap splitting).
func DefaultTriplegOptions() TriplegOptions {
	return TriplegOptions{Method: "between_staypoints", GapThreshold: DefaultGapThreshold}
}

// ActivityOptions configures CreateActivityFlag. A zero threshold is
// honored: every staypoint with positive duration becomes an activity.
type ActivityOptions struct {
	Method        string // "time_threshold" (default)
	TimeThreshold time.Duration
}

// DefaultActivityOptions returns the conventional activity flag threshold
// (15 min).
func DefaultActivityOptions() ActivityOptions {
	return ActivityOptions{Method: "time_threshold", TimeThreshold: DefaultActivityThreshold}
}

// TripOptions configures GenerateTrips. A zero GapThreshold is honored:
// any positive recording gap then ends the trip.
type TripOptions struct {
	GapThreshold time.Duration // a longer recording gap splits the trip
	AddGeometry  bool          // attach endpoint coordinates to trips
}

// DefaultTripOptions returns the conventional trip generation parameters
// (15 min gap threshold, endpoint geometry attached).
func DefaultTripOptions() TripOptions {
	return TripOptions{GapThreshold: DefaultGapThreshold, AddGeometry: true}
}

// TourOptions configures GenerateTours. MaxDist and MaxTime are honored
// literally: a zero MaxDist requires coinciding endpoints and a zero
// MaxTime expires every candidate.
type TourOptions struct {
	// Staypoints with location ids enable location-based place comparison.
	// When nil, places are compared by endpoint distance <= MaxDist.
	Staypoints []models.Staypoint

	MaxDist   float64
	Metric    spatial.Metric // metric for distance-based place comparison
	MaxTime   time.Duration  // tour time budget, must not be negative
	MaxNrGaps int            // spatial gaps tolerated inside one tour
}

// DefaultTourOptions returns the conventional tour detection parameters
// (100 m, 24 h, no gaps).
func DefaultTourOptions() TourOptions {
	return TourOptions{MaxDist: DefaultMaxDist, Metric: spatial.MetricHaversine, MaxTime: DefaultMaxTime}
}

// ParseDuration parses a duration string, additionally accepting a "d" day
// suffix ("1d", "2d12h") on top of the standard unit suffixes. A bare
// number carries no unit and is rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return 0, fmt.Errorf("%w: bare number %q, use a unit suffix such as \"24h\" or \"1d\"", ErrInvalidDuration, s)
	}
	if i := strings.IndexByte(s, 'd'); i >= 0 {
		days, err := strconv.Atoi(s[:i])
		if err != nil || days < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		rest := time.Duration(0)
		if i+1 < len(s) {
			rest, err = time.ParseDuration(s[i+1:])
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
			}
		}
		return time.Duration(days)*24*time.Hour + rest, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	return d, nil
}
