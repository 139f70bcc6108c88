package tracking

import (
	"context"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
)

type Repository interface {
	CreateActiveSession(ctx context.Context, employeeID uint64, now time.Time) (*models.TrackingSession, bool, error)
	GetActiveSession(ctx context.Context, employeeID uint64) (*models.TrackingSession, error)
	StopSession(ctx context.Context, employeeID, sessionID uint64, now time.Time) (models.SessionStats, error)
	AppendPathPoint(ctx context.Context, sessionID uint64, lat, lng float64, at time.Time, updateLive bool) (models.PushResult, error)
	CreatePinpoint(ctx context.Context, in models.PinpointInput, at time.Time) (*models.Pinpoint, error)
	ListPinpoints(ctx context.Context, sessionIDs []uint64) ([]*models.Pinpoint, error)
	ListLivePositions(ctx context.Context) ([]*models.LivePosition, error)
	ListSessionsStartedBetween(ctx context.Context, from, to time.Time) ([]*models.SessionDetail, error)
}

// AddressResolver never fails; ok reports whether the address came from the geocoder.
type AddressResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (addr string, ok bool)
}

type Service struct {
	repo     Repository
	geocoder AddressResolver
	loc      *time.Location
	now      func() time.Time
}

func New(repo Repository, geocoder AddressResolver, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, geocoder: geocoder, loc: loc, now: time.Now}
}

// SessionsToday lists sessions of every employee started on the current calendar day.
func (s *Service) SessionsToday(ctx context.Context) ([]*models.SessionDetail, error) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	sessions, err := s.repo.ListSessionsStartedBetween(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]uint64, 0, len(sessions))
	byID := make(map[uint64]*models.SessionDetail, len(sessions))
	for _, d := range sessions {
		ids = append(ids, d.Session.ID)
		byID[d.Session.ID] = d
		d.Pinpoints = []*models.Pinpoint{}
	}

	pins, err := s.repo.ListPinpoints(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range pins {
		if p.SessionID == nil {
			continue
		}
		if d, ok := byID[*p.SessionID]; ok {
			d.Pinpoints = append(d.Pinpoints, p)
		}
	}
	return sessions, nil
}
