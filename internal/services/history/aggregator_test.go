package history

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	active   *models.TrackingSession
	sessions []*models.TrackingSession
	paths    []*models.PathPoint
	pins     []*models.Pinpoint

	gotFrom, gotTo time.Time
}

func (r *fakeRepo) GetActiveSession(ctx context.Context, employeeID uint64) (*models.TrackingSession, error) {
	if r.active == nil {
		return nil, models.Errorf(models.ErrNotFound, "No active session found")
	}
	return r.active, nil
}

func (r *fakeRepo) GetSession(ctx context.Context, id uint64) (*models.TrackingSession, error) {
	for _, s := range r.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.Errorf(models.ErrNotFound, "Session not found")
}

func (r *fakeRepo) ListSessionsInRange(ctx context.Context, employeeID uint64, from, to time.Time) ([]*models.TrackingSession, error) {
	r.gotFrom, r.gotTo = from, to
	var out []*models.TrackingSession
	for _, s := range r.sessions {
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListPathPoints(ctx context.Context, ids []uint64) ([]*models.PathPoint, error) {
	return r.paths, nil
}

func (r *fakeRepo) ListPinpoints(ctx context.Context, ids []uint64) ([]*models.Pinpoint, error) {
	return r.pins, nil
}

func ptr[T any](v T) *T { return &v }

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newAggregator(repo Repository, now string) *Aggregator {
	a := New(repo, time.UTC)
	a.now = func() time.Time { return at(now) }
	return a
}

func TestResolveRange(t *testing.T) {
	a := newAggregator(&fakeRepo{}, "2024-03-10T15:00:00Z")

	t.Run("default window", func(t *testing.T) {
		r, err := a.ResolveRange("", "", "")
		require.NoError(t, err)
		require.Equal(t, at("2024-03-06T00:00:00Z"), r.Start)
		require.Equal(t, at("2024-03-10T00:00:00Z"), r.End)
		require.Equal(t, 5, r.Days())
	})

	t.Run("single date", func(t *testing.T) {
		r, err := a.ResolveRange("2024-01-15", "", "")
		require.NoError(t, err)
		require.Equal(t, r.Start, r.End)
		require.Equal(t, 1, r.Days())
	})

	t.Run("explicit range wins over date", func(t *testing.T) {
		r, err := a.ResolveRange("2024-01-15", "2024-02-01", "2024-02-03")
		require.NoError(t, err)
		require.Equal(t, at("2024-02-01T00:00:00Z"), r.Start)
		require.Equal(t, 3, r.Days())
	})

	t.Run("half range falls back to date", func(t *testing.T) {
		r, err := a.ResolveRange("2024-01-15", "2024-02-01", "")
		require.NoError(t, err)
		require.Equal(t, at("2024-01-15T00:00:00Z"), r.Start)
	})

	for _, bad := range []string{"15/01/2024", "2024-13-01", "yesterday"} {
		_, err := a.ResolveRange(bad, "", "")
		require.ErrorIs(t, err, models.ErrInvalidInput, bad)
	}

	_, err := a.ResolveRange("", "2024-02-05", "2024-02-01")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestNewRange_RequiresBothDates(t *testing.T) {
	a := newAggregator(&fakeRepo{}, "2024-03-10T15:00:00Z")
	_, err := a.NewRange("2024-02-01", "")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestHistory_BucketsAndFeed(t *testing.T) {
	repo := &fakeRepo{
		sessions: []*models.TrackingSession{
			// runs past midnight, stays on the 1st
			{ID: 1, EmployeeID: 7, StartTime: at("2024-02-01T22:00:00Z"), EndTime: ptr(at("2024-02-02T01:00:00Z"))},
			{ID: 2, EmployeeID: 7, StartTime: at("2024-02-03T09:00:00Z"), IsActive: true},
		},
		paths: []*models.PathPoint{
			{ID: 1, SessionID: 1, Latitude: 1, Longitude: 1, Timestamp: at("2024-02-01T22:10:00Z")},
			{ID: 2, SessionID: 1, Latitude: 2, Longitude: 2, Timestamp: at("2024-02-02T00:30:00Z")},
			{ID: 3, SessionID: 2, Latitude: 3, Longitude: 3, Timestamp: at("2024-02-03T09:05:00Z")},
		},
		pins: []*models.Pinpoint{
			{ID: 10, SessionID: ptr(uint64(1)), Latitude: 1, Longitude: 1, Address: "A", Timestamp: at("2024-02-01T22:10:00Z")},
			{ID: 11, SessionID: ptr(uint64(2)), Latitude: 3, Longitude: 3, Address: "B", Timestamp: at("2024-02-03T09:01:00Z")},
		},
	}
	a := newAggregator(repo, "2024-02-10T00:00:00Z")
	r, err := a.NewRange("2024-02-01", "2024-02-05")
	require.NoError(t, err)

	h, err := a.History(context.Background(), 7, r)
	require.NoError(t, err)

	require.Equal(t, at("2024-02-01T00:00:00Z"), repo.gotFrom)
	require.Equal(t, at("2024-02-06T00:00:00Z"), repo.gotTo)

	require.Len(t, h.Days, 2)
	require.Equal(t, "2024-02-01", h.Days[0].Date.Format(DateLayout))
	require.Len(t, h.Days[0].PathPoints, 2)
	require.Len(t, h.Days[0].Pinpoints, 1)
	require.Equal(t, "2024-02-03", h.Days[1].Date.Format(DateLayout))

	require.Len(t, h.Sessions, 2)
	require.Equal(t, 5, h.TotalPoints())
	require.Len(t, h.Feed, 5)

	for i := 1; i < len(h.Feed); i++ {
		require.False(t, h.Feed[i].Timestamp.Before(h.Feed[i-1].Timestamp))
	}
	// same timestamp: path before pinpoint
	require.Equal(t, FeedPath, h.Feed[0].Kind)
	require.Equal(t, FeedPinpoint, h.Feed[1].Kind)
	require.Equal(t, "A", h.Feed[1].Pinpoint.Address)
}

func TestHistory_Empty(t *testing.T) {
	a := newAggregator(&fakeRepo{}, "2024-02-10T00:00:00Z")
	r, err := a.ResolveRange("", "", "")
	require.NoError(t, err)

	h, err := a.History(context.Background(), 7, r)
	require.NoError(t, err)
	require.Empty(t, h.Days)
	require.NotNil(t, h.Feed)
	require.Zero(t, h.TotalPoints())
}

func TestSnapshot(t *testing.T) {
	a := newAggregator(&fakeRepo{}, "2024-02-10T00:00:00Z")
	snap, err := a.Snapshot(context.Background(), models.Actor{ID: 7})
	require.NoError(t, err)
	require.Nil(t, snap.Session)
	require.Empty(t, snap.Pinpoints)

	repo := &fakeRepo{
		active: &models.TrackingSession{ID: 3, EmployeeID: 7, IsActive: true},
		pins:   []*models.Pinpoint{{ID: 1, SessionID: ptr(uint64(3))}, {ID: 2, SessionID: ptr(uint64(99))}},
	}
	snap, err = newAggregator(repo, "2024-02-10T00:00:00Z").Snapshot(context.Background(), models.Actor{ID: 7})
	require.NoError(t, err)
	require.Equal(t, uint64(3), snap.Session.ID)
	require.Len(t, snap.Pinpoints, 1)
}

func TestSession_NotFound(t *testing.T) {
	a := newAggregator(&fakeRepo{}, "2024-02-10T00:00:00Z")
	_, err := a.Session(context.Background(), 42)
	require.ErrorIs(t, err, models.ErrNotFound)
}
