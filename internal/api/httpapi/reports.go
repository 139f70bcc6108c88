package httpapi

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/go-chi/chi/v5"
)

const contentTypePDF = "application/pdf"

func (s *Server) sendReport(w http.ResponseWriter, r *http.Request, rep *reports.Report, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	attachment(w, contentTypePDF, rep.Filename, rep.Content)
}

func (s *Server) dailyReport(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employee_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.Reports.Daily(r.Context(), employeeID, r.URL.Query().Get("date"))
	s.sendReport(w, r, rep, err)
}

func (s *Server) sessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rep, err := s.deps.Reports.Session(r.Context(), sessionID)
	s.sendReport(w, r, rep, err)
}

// ownSessionReport lets employees download reports of their own sessions; admins get any.
func (s *Server) ownSessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := pathID(r, "session_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	actor := actorFrom(r.Context())
	if !actor.IsAdmin() {
		act, err := s.deps.History.Session(r.Context(), sessionID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if act.Session.EmployeeID != actor.ID {
			s.fail(w, r, models.Errorf(models.ErrForbidden, "Forbidden"))
			return
		}
	}
	rep, err := s.deps.Reports.Session(r.Context(), sessionID)
	s.sendReport(w, r, rep, err)
}

func (s *Server) rangeReport(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employee_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	rep, err := s.deps.Reports.Range(r.Context(), employeeID, q.Get("start_date"), q.Get("end_date"))
	s.sendReport(w, r, rep, err)
}

type rangeJobRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// queueRangeReport takes the dates from the query string or, when absent, from a JSON body.
func (s *Server) queueRangeReport(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employee_id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	req := rangeJobRequest{StartDate: q.Get("start_date"), EndDate: q.Get("end_date")}
	if req.StartDate == "" && req.EndDate == "" && r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	job, err := s.deps.Jobs.Enqueue(r.Context(), actorFrom(r.Context()), employeeID, req.StartDate, req.EndDate)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       job.JobID,
		"filename":     job.Filename,
		"download_url": "/api/reports/archive/" + job.Filename,
	})
}

func (s *Server) archivedReport(w http.ResponseWriter, r *http.Request) {
	f, info, err := s.deps.Archive.Open(chi.URLParam(r, "filename"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.log.Warn("archive download interrupted", "file", info.Name(), "err", err)
	}
}
