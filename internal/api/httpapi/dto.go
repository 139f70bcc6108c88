package httpapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/history"
)

// coordinate accepts a JSON number or a numeric string. Absent or null decodes to 0.
type coordinate float64

func (c *coordinate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Errorf(models.ErrInvalidInput, "Invalid coordinates")
	}
	*c = coordinate(f)
	return nil
}

type sessionJSON struct {
	ID        uint64     `json:"id"`
	Employee  uint64     `json:"employee"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	IsActive  bool       `json:"is_active"`
}

func toSessionJSON(s *models.TrackingSession) *sessionJSON {
	if s == nil {
		return nil
	}
	return &sessionJSON{ID: s.ID, Employee: s.EmployeeID, StartTime: s.StartTime, EndTime: s.EndTime, IsActive: s.IsActive}
}

type pinpointJSON struct {
	ID        uint64    `json:"id"`
	Session   *uint64   `json:"session"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Place     string    `json:"place"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func toPinpointJSON(p *models.Pinpoint) pinpointJSON {
	return pinpointJSON{
		ID:        p.ID,
		Session:   p.SessionID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Place:     p.Place,
		Address:   p.Address,
		Phone:     p.Phone,
		Message:   p.Message,
		Timestamp: p.Timestamp,
	}
}

func toPinpointsJSON(ps []*models.Pinpoint) []pinpointJSON {
	out := make([]pinpointJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPinpointJSON(p))
	}
	return out
}

type userJSON struct {
	ID          uint64  `json:"id"`
	Username    string  `json:"username"`
	Role        string  `json:"role"`
	FullName    string  `json:"full_name"`
	Designation string  `json:"designation"`
	Location    string  `json:"location"`
	DateOfBirth *string `json:"date_of_birth"`
}

func toUserJSON(u *models.User) userJSON {
	out := userJSON{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		FullName:    u.FullName,
		Designation: u.Designation,
		Location:    u.Location,
	}
	if u.DateOfBirth != nil {
		d := u.DateOfBirth.Format(history.DateLayout)
		out.DateOfBirth = &d
	}
	return out
}

func toUsersJSON(us []*models.User) []userJSON {
	out := make([]userJSON, 0, len(us))
	for _, u := range us {
		out = append(out, toUserJSON(u))
	}
	return out
}

type onlineEmployeeJSON struct {
	userJSON
	LastActivity time.Time `json:"last_activity"`
	SessionStart time.Time `json:"session_start"`
}

type livePositionJSON struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Employee  string    `json:"employee"`
	SessionID uint64    `json:"session_id"`
}

type statsJSON struct {
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	LocationPoints  int     `json:"location_points"`
	Pinpoints       int     `json:"pinpoints"`
}

// formatDuration renders d as H:MM:SS.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

type lastPositionJSON struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type sessionTodayJSON struct {
	SessionID    uint64            `json:"session_id"`
	EmployeeID   uint64            `json:"employee_id"`
	EmployeeName string            `json:"employee_name"`
	IsActive     bool              `json:"is_active"`
	LastPosition *lastPositionJSON `json:"last_position"`
	Pinpoints    []pinpointJSON    `json:"pinpoints"`
}

func toSessionTodayJSON(d *models.SessionDetail) sessionTodayJSON {
	out := sessionTodayJSON{
		SessionID:    d.Session.ID,
		EmployeeID:   d.Session.EmployeeID,
		EmployeeName: d.EmployeeName,
		IsActive:     d.Session.IsActive,
		Pinpoints:    toPinpointsJSON(d.Pinpoints),
	}
	if n := len(d.Pinpoints); n > 0 {
		last := d.Pinpoints[n-1]
		out.LastPosition = &lastPositionJSON{Lat: last.Latitude, Lng: last.Longitude}
	}
	return out
}

// History aggregate.

type historyPointJSON struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Place     *string   `json:"place,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Message   *string   `json:"message,omitempty"`
	Date      string    `json:"date"`
	Type      string    `json:"type"`
}

type historySessionJSON struct {
	ID        uint64     `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	IsActive  bool       `json:"is_active"`
}

type dayJSON struct {
	Sessions   []historySessionJSON `json:"sessions"`
	PathPoints []historyPointJSON   `json:"path_points"`
	Pinpoints  []historyPointJSON   `json:"pinpoints"`
}

type dateRangeJSON struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays int    `json:"total_days"`
}

type historyStatsJSON struct {
	TotalPathPoints int `json:"total_path_points"`
	TotalPinpoints  int `json:"total_pinpoints"`
	TotalPoints     int `json:"total_points"`
}

type historyJSON struct {
	DateRange     dateRangeJSON        `json:"date_range"`
	DailyData     map[string]*dayJSON  `json:"daily_data"`
	Sessions      []historySessionJSON `json:"sessions"`
	PathPoints    []historyPointJSON   `json:"path_points"`
	Pinpoints     []historyPointJSON   `json:"pinpoints"`
	AllPoints     []historyPointJSON   `json:"all_points"`
	TotalSessions int                  `json:"total_sessions"`
	Statistics    historyStatsJSON     `json:"statistics"`
}

func pathPointJSON(p *models.PathPoint, date string) historyPointJSON {
	return historyPointJSON{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: p.Timestamp, Date: date, Type: string(history.FeedPath)}
}

func pinpointPointJSON(p *models.Pinpoint, date string) historyPointJSON {
	place, addr, msg := p.Place, p.Address, p.Message
	return historyPointJSON{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Timestamp: p.Timestamp,
		Place:     &place,
		Address:   &addr,
		Message:   &msg,
		Date:      date,
		Type:      string(history.FeedPinpoint),
	}
}

func toHistoryJSON(h *history.History) historyJSON {
	out := historyJSON{
		DateRange: dateRangeJSON{
			StartDate: h.Range.Start.Format(history.DateLayout),
			EndDate:   h.Range.End.Format(history.DateLayout),
			TotalDays: h.Range.Days(),
		},
		DailyData:  make(map[string]*dayJSON, len(h.Days)),
		Sessions:   []historySessionJSON{},
		PathPoints: []historyPointJSON{},
		Pinpoints:  []historyPointJSON{},
		AllPoints:  make([]historyPointJSON, 0, len(h.Feed)),
	}

	dateOf := make(map[uint64]string)
	for _, day := range h.Days {
		key := day.Date.Format(history.DateLayout)
		dj := &dayJSON{Sessions: []historySessionJSON{}, PathPoints: []historyPointJSON{}, Pinpoints: []historyPointJSON{}}
		for _, act := range day.Sessions {
			s := act.Session
			dateOf[s.ID] = key
			sj := historySessionJSON{ID: s.ID, StartTime: s.StartTime, EndTime: s.EndTime, IsActive: s.IsActive}
			dj.Sessions = append(dj.Sessions, sj)
			out.Sessions = append(out.Sessions, sj)
			for _, p := range act.PathPoints {
				pj := pathPointJSON(p, key)
				dj.PathPoints = append(dj.PathPoints, pj)
				out.PathPoints = append(out.PathPoints, pj)
			}
			for _, p := range act.Pinpoints {
				pj := pinpointPointJSON(p, key)
				dj.Pinpoints = append(dj.Pinpoints, pj)
				out.Pinpoints = append(out.Pinpoints, pj)
			}
		}
		out.DailyData[key] = dj
	}

	for _, item := range h.Feed {
		date := dateOf[item.SessionID]
		if item.Kind == history.FeedPinpoint && item.Pinpoint != nil {
			out.AllPoints = append(out.AllPoints, pinpointPointJSON(item.Pinpoint, date))
			continue
		}
		out.AllPoints = append(out.AllPoints, historyPointJSON{
			Latitude:  item.Latitude,
			Longitude: item.Longitude,
			Timestamp: item.Timestamp,
			Date:      date,
			Type:      string(item.Kind),
		})
	}

	out.TotalSessions = len(out.Sessions)
	out.Statistics = historyStatsJSON{
		TotalPathPoints: len(out.PathPoints),
		TotalPinpoints:  len(out.Pinpoints),
		TotalPoints:     len(out.AllPoints),
	}
	return out
}
