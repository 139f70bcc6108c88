package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/services/leads"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type quoteJSON struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Location    string    `json:"location"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func toQuoteJSON(q *models.QuoteSubmission) quoteJSON {
	return quoteJSON{ID: q.ID, Name: q.Name, Phone: q.Phone, Email: q.Email, Location: q.Location, SubmittedAt: q.SubmittedAt}
}

type contactJSON struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func toContactJSON(c *models.ContactSubmission) contactJSON {
	return contactJSON{ID: c.ID, Name: c.Name, PhoneNumber: c.PhoneNumber, Email: c.Email, Message: c.Message, SubmittedAt: c.SubmittedAt}
}

type laserScreedJSON struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Company        string    `json:"company"`
	WhatsApp       string    `json:"whatsapp"`
	Services       []string  `json:"services"`
	NeedTroweling  string    `json:"need_troweling"`
	TrowelingColor string    `json:"troweling_color"`
	SqftRange      string    `json:"sqft_range"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toLaserScreedJSON(l *models.LaserScreedSubmission) laserScreedJSON {
	services := l.Services
	if services == nil {
		services = []string{}
	}
	return laserScreedJSON{
		ID:             l.ID,
		Name:           l.Name,
		Email:          l.Email,
		Company:        l.Company,
		WhatsApp:       l.WhatsApp,
		Services:       services,
		NeedTroweling:  l.NeedTroweling,
		TrowelingColor: l.TrowelingColor,
		SqftRange:      l.SqftRange,
		Status:         l.Status,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// laserScreedAliases maps the web form's camelCase keys onto the stored field names.
var laserScreedAliases = map[string]string{
	"needTroweling":  "need_troweling",
	"trowelingColor": "troweling_color",
	"sqftRange":      "sqft_range",
}

// decodeLaserScreed reads a JSON object, renaming camelCase form keys before decoding into dst.
func decodeLaserScreed(w http.ResponseWriter, r *http.Request, dst any) error {
	var raw map[string]json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		return err
	}
	for from, to := range laserScreedAliases {
		if v, ok := raw[from]; ok {
			raw[to] = v
			delete(raw, from)
		}
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return models.Errorf(models.ErrInvalidInput, "Invalid JSON body: %v", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return models.Errorf(models.ErrInvalidInput, "Invalid JSON body: %v", err)
	}
	return nil
}

func requestScheme(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func (s *Server) submitQuote(w http.ResponseWriter, r *http.Request) {
	var in leads.QuoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	q, err := s.deps.Leads.SubmitQuote(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Quote request submitted successfully!",
		"data":    toQuoteJSON(q),
		"pdf_url": requestScheme(r) + "://" + r.Host + "/api/download-pdf/",
	})
}

func (s *Server) listQuotes(w http.ResponseWriter, r *http.Request) {
	qs, err := s.deps.Leads.ListQuotes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]quoteJSON, 0, len(qs))
	for _, q := range qs {
		out = append(out, toQuoteJSON(q))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteQuote(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.deps.Leads.DeleteQuote)
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var in leads.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.deps.Leads.SubmitContact(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Contact form submitted successfully!",
		"data":    toContactJSON(c),
	})
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	cs, err := s.deps.Leads.ListContacts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]contactJSON, 0, len(cs))
	for _, c := range cs {
		out = append(out, toContactJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteContact(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.deps.Leads.DeleteContact)
}

func (s *Server) submitLaserScreed(w http.ResponseWriter, r *http.Request) {
	var in leads.LaserScreedInput
	if err := decodeLaserScreed(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.deps.Leads.SubmitLaserScreed(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Form submitted successfully!",
		"data":    toLaserScreedJSON(l),
	})
}

func (s *Server) listLaserScreed(w http.ResponseWriter, r *http.Request) {
	ls, err := s.deps.Leads.ListLaserScreed(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]laserScreedJSON, 0, len(ls))
	for _, l := range ls {
		out = append(out, toLaserScreedJSON(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getLaserScreed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.deps.Leads.GetLaserScreed(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLaserScreedJSON(l))
}

func (s *Server) updateLaserScreed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var upd leads.LaserScreedUpdate
	if err := decodeLaserScreed(w, r, &upd); err != nil {
		s.fail(w, r, err)
		return
	}
	l, err := s.deps.Leads.UpdateLaserScreed(r.Context(), id, upd)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Status updated successfully!",
		"data":    toLaserScreedJSON(l),
	})
}

func (s *Server) deleteLaserScreed(w http.ResponseWriter, r *http.Request) {
	s.deleteByID(w, r, s.deps.Leads.DeleteLaserScreed)
}

func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id uint64) error) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportLeads(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.deps.Leads.Export(r.Context(), &buf); err != nil {
		s.fail(w, r, err)
		return
	}
	name := "leads-" + time.Now().Format(history.DateLayout) + ".xlsx"
	attachment(w, contentTypeXLSX, name, buf.Bytes())
}

// downloadBrochure serves the static quote brochure offered after a quote request.
func (s *Server) downloadBrochure(w http.ResponseWriter, r *http.Request) {
	if s.opts.BrochurePath == "" {
		s.fail(w, r, models.Errorf(models.ErrNotFound, "PDF not found"))
		return
	}
	f, err := os.Open(s.opts.BrochurePath)
	if err != nil {
		s.fail(w, r, models.Errorf(models.ErrNotFound, "PDF not found"))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.fail(w, r, models.Errorf(models.ErrNotFound, "PDF not found"))
		return
	}

	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(s.opts.BrochurePath)}))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
