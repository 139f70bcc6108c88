package models

import "time"

// TrackingSession is one continuous on-duty interval of an employee.
// EndTime is set iff IsActive is false.
type TrackingSession struct {
	ID         uint64
	EmployeeID uint64
	StartTime  time.Time
	EndTime    *time.Time
	IsActive   bool

	// Last known position, overwritten by live pushes.
	CurrentLatitude    *float64
	CurrentLongitude   *float64
	LastLocationUpdate *time.Time
}

type PathPoint struct {
	ID        uint64
	SessionID uint64
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

type Pinpoint struct {
	ID        uint64
	SessionID *uint64
	Latitude  float64
	Longitude float64
	Place     string
	Address   string
	Phone     string
	Message   string
	Timestamp time.Time
}

type PinpointInput struct {
	SessionID uint64
	Latitude  float64
	Longitude float64
	Place     string
	Address   string
	Phone     string
	Message   string
}

type SessionStats struct {
	SessionID  uint64
	StartTime  time.Time
	EndTime    time.Time
	PathPoints int
	Pinpoints  int
}

func (s SessionStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// PushMode selects whether a location push also refreshes the session's cached position.
type PushMode string

const (
	PushModeSimple PushMode = "simple"
	PushModeLive   PushMode = "live"
)

type PushResult struct {
	PointID     uint64
	TotalPoints int
	RecordedAt  time.Time
}

// LivePosition is the cached position of one active session.
// Latitude/Longitude are nil until the first live push.
type LivePosition struct {
	SessionID  uint64
	EmployeeID uint64
	Username   string
	Latitude   *float64
	Longitude  *float64
	UpdatedAt  time.Time
}

// SessionDetail is a session joined with its employee and annotations.
type SessionDetail struct {
	Session      *TrackingSession
	EmployeeName string
	Pinpoints    []*Pinpoint
}
