package segmentation

import (
	"fmt"

	"github.com/yhzhou/mobility-backend-go/internal/models"
)

// CreateActivityFlag marks staypoints whose duration exceeds TimeThreshold
// as activities. The threshold is taken literally; at zero, every staypoint
// with positive duration is an activity. Activities are meaningful
// destinations and anchor the trip boundaries in GenerateTrips. Pure and
// row-wise; returns a copy.
func CreateActivityFlag(sps []models.Staypoint, opts ActivityOptions) ([]models.Staypoint, error) {
	if opts.Method == "" {
		opts.Method = "time_threshold"
	}
	if opts.Method != "time_threshold" {
		return nil, fmt.Errorf("%w %q for activity flagging", ErrUnknownMethod, opts.Method)
	}
	if err := validateIntervals(sps); err != nil {
		return nil, err
	}

	ret := make([]models.Staypoint, len(sps))
	copy(ret, sps)
	for i := range ret {
		ret[i].IsActivity = ret[i].FinishedAt.Sub(ret[i].StartedAt) > opts.TimeThreshold
	}
	return ret, nil
}

func validateIntervals(sps []models.Staypoint) error {
	for _, sp := range sps {
		if sp.StartedAt.IsZero() || sp.FinishedAt.IsZero() {
			return fmt.Errorf("%w: staypoint %d of user %d", ErrMissingTimestamp, sp.ID, sp.UserID)
		}
		if sp.FinishedAt.Before(sp.StartedAt) {
			return fmt.Errorf("%w: staypoint %d of user %d", ErrInvalidInterval, sp.ID, sp.UserID)
		}
	}
	return nil
}
