package httpapi

import (
	"net/http"
	"strconv"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/pkg/errors"
)

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.deps.Tracking.StartSession(r.Context(), actorFrom(r.Context()))
	if err != nil {
		// повторный старт: отдаём уже открытую сессию
		if errors.Is(err, models.ErrConflict) && sess != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"detail":  messageOf(err),
				"session": toSessionJSON(sess),
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionJSON(sess))
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	stats, err := s.deps.Tracking.StopSession(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	d := stats.Duration()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "Session stopped successfully",
		"session_id": stats.SessionID,
		"statistics": statsJSON{
			Duration:        formatDuration(d),
			DurationSeconds: d.Seconds(),
			LocationPoints:  stats.PathPoints,
			Pinpoints:       stats.Pinpoints,
		},
	})
}

type pinpointRequest struct {
	Latitude  coordinate `json:"latitude"`
	Longitude coordinate `json:"longitude"`
	Place     string     `json:"place"`
	Address   string     `json:"address"`
	Phone     string     `json:"phone"`
	Message   string     `json:"message"`
}

func (s *Server) addPinpoint(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "session_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req pinpointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.deps.Tracking.AddPinpoint(r.Context(), actorFrom(r.Context()), models.PinpointInput{
		SessionID: id,
		Latitude:  float64(req.Latitude),
		Longitude: float64(req.Longitude),
		Place:     req.Place,
		Address:   req.Address,
		Phone:     req.Phone,
		Message:   req.Message,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPinpointJSON(p))
}

func (s *Server) mySession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.History.Snapshot(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	path := make([][2]float64, 0, len(snap.Path))
	for _, p := range snap.Path {
		path = append(path, [2]float64{p.Latitude, p.Longitude})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":     toSessionJSON(snap.Session),
		"pinpoints":   toPinpointsJSON(snap.Pinpoints),
		"path_points": path,
	})
}

type pushRequest struct {
	Latitude  coordinate `json:"latitude"`
	Longitude coordinate `json:"longitude"`
}

func (s *Server) push(w http.ResponseWriter, r *http.Request, mode models.PushMode) (models.PushResult, bool) {
	var req pushRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return models.PushResult{}, false
	}
	res, err := s.deps.Tracking.PushLocation(r.Context(), actorFrom(r.Context()), float64(req.Latitude), float64(req.Longitude), mode)
	if err != nil {
		s.fail(w, r, err)
		return models.PushResult{}, false
	}
	return res, true
}

func (s *Server) pushSimple(w http.ResponseWriter, r *http.Request) {
	res, ok := s.push(w, r, models.PushModeSimple)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "Location updated",
		"point_id":     res.PointID,
		"total_points": res.TotalPoints,
	})
}

func (s *Server) pushLive(w http.ResponseWriter, r *http.Request) {
	res, ok := s.push(w, r, models.PushModeLive)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"message":      "Location updated successfully",
		"point_id":     res.PointID,
		"total_points": res.TotalPoints,
	})
}

func (s *Server) liveAll(w http.ResponseWriter, r *http.Request) {
	positions, err := s.deps.Tracking.LivePositions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make(map[string]livePositionJSON, len(positions))
	for _, p := range positions {
		out[strconv.FormatUint(p.EmployeeID, 10)] = livePositionJSON{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Timestamp: p.UpdatedAt,
			Employee:  p.Username,
			SessionID: p.SessionID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employee_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	rng, err := s.deps.History.ResolveRange(q.Get("date"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	h, err := s.deps.History.History(r.Context(), employeeID, rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryJSON(h))
}

func (s *Server) sessionsToday(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.deps.Tracking.SessionsToday(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]sessionTodayJSON, 0, len(sessions))
	for _, d := range sessions {
		out = append(out, toSessionTodayJSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}
