package tracking

import (
	"context"
	"strings"

	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
)

// AddPinpoint records an annotated location in the actor's active session.
// Without a caller-supplied address the geocoder is asked once; its failures
// degrade to a coordinate string and never fail the request.
func (s *Service) AddPinpoint(ctx context.Context, actor models.Actor, in models.PinpointInput) (*models.Pinpoint, error) {
	sess, err := s.repo.GetActiveSession(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if sess.ID != in.SessionID {
		return nil, models.Errorf(models.ErrNotFound, "Active session not found")
	}
	if err := ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	in.Address = strings.TrimSpace(in.Address)
	source := "caller"
	if in.Address == "" {
		addr, ok := s.geocoder.Resolve(ctx, in.Latitude, in.Longitude)
		in.Address = addr
		source = "geocoder"
		if !ok {
			source = "fallback"
		}
	}

	p, err := s.repo.CreatePinpoint(ctx, in, s.now())
	if err != nil {
		return nil, err
	}
	metrics.PinpointsCreated.WithLabelValues(source).Inc()
	return p, nil
}
