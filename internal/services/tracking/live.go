package tracking

import (
	"context"
	"math"

	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
)

// PushLocation appends a path point to the actor's active session. Live mode also
// refreshes the session's cached position.
func (s *Service) PushLocation(ctx context.Context, actor models.Actor, lat, lng float64, mode models.PushMode) (models.PushResult, error) {
	sess, err := s.repo.GetActiveSession(ctx, actor.ID)
	if err != nil {
		return models.PushResult{}, err
	}
	if err := ValidateFix(lat, lng); err != nil {
		return models.PushResult{}, err
	}

	res, err := s.repo.AppendPathPoint(ctx, sess.ID, lat, lng, s.now(), mode == models.PushModeLive)
	if err != nil {
		return models.PushResult{}, err
	}
	metrics.LocationPushes.WithLabelValues(string(mode)).Inc()
	return res, nil
}

// LivePositions returns the cached position of every active session.
func (s *Service) LivePositions(ctx context.Context) ([]*models.LivePosition, error) {
	return s.repo.ListLivePositions(ctx)
}

// ValidateFix rejects coordinates that cannot come from a real GPS fix.
// A zero component is the client's "no fix yet" sentinel.
func ValidateFix(lat, lng float64) error {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return err
	}
	if lat == 0 || lng == 0 {
		return models.Errorf(models.ErrInvalidInput, "Invalid coordinates")
	}
	return nil
}

func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return models.Errorf(models.ErrInvalidInput, "Invalid coordinates")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return models.Errorf(models.ErrInvalidInput, "Coordinates out of range")
	}
	return nil
}
