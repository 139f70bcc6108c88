package history

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/pkg/errors"
)

const (
	DateLayout        = "2006-01-02"
	DefaultWindowDays = 5
)

type Repository interface {
	GetActiveSession(ctx context.Context, employeeID uint64) (*models.TrackingSession, error)
	GetSession(ctx context.Context, id uint64) (*models.TrackingSession, error)
	ListSessionsInRange(ctx context.Context, employeeID uint64, from, to time.Time) ([]*models.TrackingSession, error)
	ListPathPoints(ctx context.Context, sessionIDs []uint64) ([]*models.PathPoint, error)
	ListPinpoints(ctx context.Context, sessionIDs []uint64) ([]*models.Pinpoint, error)
}

// Range is an inclusive span of calendar dates; both ends are midnights in the aggregator's zone.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24+0.5) + 1
}

type Aggregator struct {
	repo Repository
	loc  *time.Location
	now  func() time.Time
}

func New(repo Repository, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{repo: repo, loc: loc, now: time.Now}
}

func (a *Aggregator) Location() *time.Location { return a.loc }

// Today is the current calendar date in the aggregator's zone.
func (a *Aggregator) Today() time.Time {
	return a.midnight(a.now())
}

func (a *Aggregator) midnight(t time.Time) time.Time {
	t = t.In(a.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, a.loc)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func (a *Aggregator) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), a.loc)
	if err != nil {
		return time.Time{}, models.Errorf(models.ErrInvalidInput, "Invalid date format. Use YYYY-MM-DD")
	}
	return d, nil
}

// ResolveRange picks the history window: an explicit start/end pair, else a single
// date, else the DefaultWindowDays most recent days ending today.
func (a *Aggregator) ResolveRange(date, start, end string) (Range, error) {
	switch {
	case start != "" && end != "":
		return a.NewRange(start, end)
	case date != "":
		d, err := a.ParseDate(date)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: d, End: d}, nil
	default:
		today := a.Today()
		return Range{Start: today.AddDate(0, 0, -(DefaultWindowDays - 1)), End: today}, nil
	}
}

// NewRange builds an explicit range; both dates are required.
func (a *Aggregator) NewRange(start, end string) (Range, error) {
	if start == "" || end == "" {
		return Range{}, models.Errorf(models.ErrInvalidInput, "Both start_date and end_date parameters required")
	}
	s, err := a.ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := a.ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	if e.Before(s) {
		return Range{}, models.Errorf(models.ErrInvalidInput, "end_date must not be before start_date")
	}
	return Range{Start: s, End: e}, nil
}

// History aggregates an employee's sessions started within the range.
func (a *Aggregator) History(ctx context.Context, employeeID uint64, r Range) (*History, error) {
	sessions, err := a.repo.ListSessionsInRange(ctx, employeeID, r.Start, r.End.AddDate(0, 0, 1))
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	activities, err := a.loadActivities(ctx, sessions)
	if err != nil {
		return nil, err
	}

	h := &History{
		EmployeeID: employeeID,
		Range:      r,
		Sessions:   activities,
		PathPoints: []*models.PathPoint{},
		Pinpoints:  []*models.Pinpoint{},
		Days:       []*DayBucket{},
		Feed:       []FeedItem{},
	}

	byDate := make(map[string]*DayBucket)
	for _, act := range activities {
		day := a.midnight(act.Session.StartTime)
		key := day.Format(DateLayout)
		b, ok := byDate[key]
		if !ok {
			b = &DayBucket{Date: day, PathPoints: []*models.PathPoint{}, Pinpoints: []*models.Pinpoint{}}
			byDate[key] = b
			h.Days = append(h.Days, b)
		}
		b.Sessions = append(b.Sessions, act)
		b.PathPoints = append(b.PathPoints, act.PathPoints...)
		b.Pinpoints = append(b.Pinpoints, act.Pinpoints...)

		h.PathPoints = append(h.PathPoints, act.PathPoints...)
		h.Pinpoints = append(h.Pinpoints, act.Pinpoints...)
		for _, p := range act.PathPoints {
			h.Feed = append(h.Feed, FeedItem{Kind: FeedPath, Timestamp: p.Timestamp, SessionID: p.SessionID, Latitude: p.Latitude, Longitude: p.Longitude})
		}
		for _, p := range act.Pinpoints {
			h.Feed = append(h.Feed, FeedItem{Kind: FeedPinpoint, Timestamp: p.Timestamp, SessionID: act.Session.ID, Latitude: p.Latitude, Longitude: p.Longitude, Pinpoint: p})
		}
	}

	sort.Slice(h.Days, func(i, j int) bool { return h.Days[i].Date.Before(h.Days[j].Date) })
	sort.SliceStable(h.Feed, func(i, j int) bool { return h.Feed[i].Timestamp.Before(h.Feed[j].Timestamp) })
	return h, nil
}

// Session loads a single session with its path and pinpoints.
func (a *Aggregator) Session(ctx context.Context, sessionID uint64) (*SessionActivity, error) {
	sess, err := a.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	acts, err := a.loadActivities(ctx, []*models.TrackingSession{sess})
	if err != nil {
		return nil, err
	}
	return acts[0], nil
}

// Snapshot returns the actor's active session with its points, or an empty snapshot.
func (a *Aggregator) Snapshot(ctx context.Context, actor models.Actor) (*Snapshot, error) {
	sess, err := a.repo.GetActiveSession(ctx, actor.ID)
	if errors.Is(err, models.ErrNotFound) {
		return &Snapshot{Pinpoints: []*models.Pinpoint{}, Path: []*models.PathPoint{}}, nil
	}
	if err != nil {
		return nil, err
	}
	acts, err := a.loadActivities(ctx, []*models.TrackingSession{sess})
	if err != nil {
		return nil, err
	}
	return &Snapshot{Session: sess, Pinpoints: acts[0].Pinpoints, Path: acts[0].PathPoints}, nil
}

func (a *Aggregator) loadActivities(ctx context.Context, sessions []*models.TrackingSession) ([]*SessionActivity, error) {
	out := make([]*SessionActivity, 0, len(sessions))
	if len(sessions) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(sessions))
	byID := make(map[uint64]*SessionActivity, len(sessions))
	for _, s := range sessions {
		act := &SessionActivity{Session: s, PathPoints: []*models.PathPoint{}, Pinpoints: []*models.Pinpoint{}}
		out = append(out, act)
		ids = append(ids, s.ID)
		byID[s.ID] = act
	}

	paths, err := a.repo.ListPathPoints(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list path points")
	}
	for _, p := range paths {
		if act, ok := byID[p.SessionID]; ok {
			act.PathPoints = append(act.PathPoints, p)
		}
	}

	pins, err := a.repo.ListPinpoints(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list pinpoints")
	}
	for _, p := range pins {
		if p.SessionID == nil {
			continue
		}
		if act, ok := byID[*p.SessionID]; ok {
			act.Pinpoints = append(act.Pinpoints, p)
		}
	}
	return out, nil
}
