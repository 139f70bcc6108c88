package tracking

import (
	"context"

	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
)

// StartSession opens a session for the actor. When one is already active it is
// returned together with a Conflict error and nothing is created.
func (s *Service) StartSession(ctx context.Context, actor models.Actor) (*models.TrackingSession, error) {
	sess, created, err := s.repo.CreateActiveSession(ctx, actor.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !created {
		metrics.SessionTransitions.WithLabelValues("conflict").Inc()
		return sess, models.Errorf(models.ErrConflict, "You already have an active session")
	}
	metrics.SessionTransitions.WithLabelValues("started").Inc()
	return sess, nil
}

// StopSession closes the actor's active session. Unknown, foreign or already stopped
// sessions are all reported as NotFound.
func (s *Service) StopSession(ctx context.Context, actor models.Actor, sessionID uint64) (models.SessionStats, error) {
	if sessionID == 0 {
		return models.SessionStats{}, models.Errorf(models.ErrNotFound, "Active session not found")
	}
	st, err := s.repo.StopSession(ctx, actor.ID, sessionID, s.now())
	if err != nil {
		return models.SessionStats{}, err
	}
	metrics.SessionTransitions.WithLabelValues("stopped").Inc()
	return st, nil
}
