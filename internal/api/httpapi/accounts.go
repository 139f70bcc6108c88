package httpapi

import (
	"net/http"
	"time"

	"github.com/BearBump/AttendTrack/internal/services/accounts"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/validation"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.deps.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": res.Token, "role": res.User.Role})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Accounts.Me(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(u))
}

type registerRequest struct {
	Username    string `json:"username" validate:"required,max=150"`
	Password    string `json:"password" validate:"required,max=128"`
	FullName    string `json:"full_name" validate:"max=150"`
	Designation string `json:"designation" validate:"max=100"`
	Location    string `json:"location" validate:"max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

func parseBirthDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	// формат уже проверен валидатором
	t, err := time.Parse(history.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func (s *Server) registerEmployee(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.deps.Accounts.RegisterEmployee(r.Context(), accounts.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		FullName:    req.FullName,
		Designation: req.Designation,
		Location:    req.Location,
		DateOfBirth: parseBirthDate(req.DateOfBirth),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Employee registered successfully", "id": u.ID})
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	us, err := s.deps.Accounts.ListEmployees(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsersJSON(us))
}

type updateEmployeeRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=150"`
	Designation *string `json:"designation" validate:"omitempty,max=100"`
	Location    *string `json:"location" validate:"omitempty,max=100"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Password    *string `json:"password"`
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateEmployeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}

	upd := accounts.EmployeeUpdate{
		FullName:    req.FullName,
		Designation: req.Designation,
		Location:    req.Location,
	}
	if req.DateOfBirth != nil {
		upd.DateOfBirth = parseBirthDate(*req.DateOfBirth)
	}
	// пустой пароль не меняет текущий
	if req.Password != nil && *req.Password != "" {
		upd.Password = req.Password
	}

	u, err := s.deps.Accounts.UpdateEmployee(r.Context(), id, upd)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Employee updated", "employee": toUserJSON(u)})
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Accounts.DeleteEmployee(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) onlineEmployees(w http.ResponseWriter, r *http.Request) {
	online, err := s.deps.Accounts.OnlineEmployees(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]onlineEmployeeJSON, 0, len(online))
	for _, e := range online {
		out = append(out, onlineEmployeeJSON{userJSON: toUserJSON(e.User), LastActivity: e.LastActivity, SessionStart: e.SessionStart})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) offlineEmployees(w http.ResponseWriter, r *http.Request) {
	us, err := s.deps.Accounts.OfflineEmployees(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsersJSON(us))
}
