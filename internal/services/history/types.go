package history

import (
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
)

type SessionActivity struct {
	Session    *models.TrackingSession
	PathPoints []*models.PathPoint
	Pinpoints  []*models.Pinpoint
}

// DayBucket groups sessions by the calendar date they started on,
// even when they run past midnight.
type DayBucket struct {
	Date       time.Time
	Sessions   []*SessionActivity
	PathPoints []*models.PathPoint
	Pinpoints  []*models.Pinpoint
}

type FeedKind string

const (
	FeedPath     FeedKind = "path"
	FeedPinpoint FeedKind = "pinpoint"
)

// FeedItem is one entry of the merged, time-ordered activity feed.
// Pinpoint is set only for FeedPinpoint items.
type FeedItem struct {
	Kind      FeedKind
	Timestamp time.Time
	SessionID uint64
	Latitude  float64
	Longitude float64
	Pinpoint  *models.Pinpoint
}

type History struct {
	EmployeeID uint64
	Range      Range
	Days       []*DayBucket
	Sessions   []*SessionActivity
	PathPoints []*models.PathPoint
	Pinpoints  []*models.Pinpoint
	Feed       []FeedItem
}

func (h *History) TotalPoints() int {
	return len(h.PathPoints) + len(h.Pinpoints)
}

type Snapshot struct {
	Session   *models.TrackingSession
	Pinpoints []*models.Pinpoint
	Path      []*models.PathPoint
}
