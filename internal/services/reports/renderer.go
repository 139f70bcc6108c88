package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/pkg/errors"
)

type Aggregator interface {
	Location() *time.Location
	ParseDate(s string) (time.Time, error)
	NewRange(start, end string) (history.Range, error)
	History(ctx context.Context, employeeID uint64, r history.Range) (*history.History, error)
	Session(ctx context.Context, sessionID uint64) (*history.SessionActivity, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// Report is a rendered PDF with its download name.
type Report struct {
	Filename string
	Content  []byte
}

type Renderer struct {
	agg    Aggregator
	users  Users
	newDoc DocumentFactory
	now    func() time.Time
}

func NewRenderer(agg Aggregator, users Users, newDoc DocumentFactory) *Renderer {
	return &Renderer{agg: agg, users: users, newDoc: newDoc, now: time.Now}
}

var (
	dailyColumns   = []string{"#", "Place", "Address", "Message", "Phone"}
	sessionColumns = []string{"#", "Place", "Address", "Phone", "Message"}
	columnWidths   = []float64{0.06, 0.18, 0.36, 0.24, 0.16}
)

// Daily renders one employee's sessions started on date (YYYY-MM-DD).
func (r *Renderer) Daily(ctx context.Context, employeeID uint64, date string) (*Report, error) {
	defer observe("daily", time.Now())

	if strings.TrimSpace(date) == "" {
		return nil, models.Errorf(models.ErrInvalidInput, "Date parameter required")
	}
	day, err := r.agg.ParseDate(date)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUserByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	h, err := r.agg.History(ctx, employeeID, history.Range{Start: day, End: day})
	if err != nil {
		return nil, err
	}
	if len(h.Sessions) == 0 {
		return nil, models.Errorf(models.ErrNotFound, "No sessions found for this date")
	}

	doc := r.newDoc()
	doc.Title("Employee Location Report")
	doc.Spacer(6)
	doc.Info("Employee", user.DisplayName())
	doc.Info("Date", day.Format(DisplayLayout))
	doc.Info("Report Generated", r.stamp())
	doc.Spacer(6)

	doc.Heading("Summary")
	doc.Info("Total Sessions", strconv.Itoa(len(h.Sessions)))
	doc.Info("Total Pinpoints", strconv.Itoa(len(h.Pinpoints)))
	doc.Info("Total Path Points", strconv.Itoa(len(h.PathPoints)))
	doc.Spacer(6)

	for i, act := range h.Sessions {
		doc.Heading(fmt.Sprintf("Session %d Details", i+1))
		if len(act.Pinpoints) == 0 {
			doc.Text("No pinpoints recorded for this session.")
		} else {
			doc.Subheading(fmt.Sprintf("Pinpoints (%d)", len(act.Pinpoints)))
			rows := make([][]string, 0, len(act.Pinpoints))
			for j, p := range act.Pinpoints {
				rows = append(rows, []string{strconv.Itoa(j + 1), orNA(p.Place), orNA(p.Address), orNA(p.Message), orNA(p.Phone)})
			}
			doc.Table(dailyColumns, columnWidths, rows)
		}
		doc.Spacer(6)
	}

	return r.finish(doc, DailyFilename(user.DisplayName(), day))
}

// Session renders a single session regardless of its state.
func (r *Renderer) Session(ctx context.Context, sessionID uint64) (*Report, error) {
	defer observe("session", time.Now())

	act, err := r.agg.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUserByID(ctx, act.Session.EmployeeID)
	if err != nil {
		return nil, err
	}
	started := act.Session.StartTime.In(r.agg.Location())

	doc := r.newDoc()
	doc.Title("Session Location Report")
	doc.Spacer(6)
	doc.Info("Employee", user.DisplayName())
	doc.Info("Session ID", strconv.FormatUint(act.Session.ID, 10))
	doc.Info("Date", started.Format(DisplayLayout))
	doc.Info("Report Generated", r.stamp())
	doc.Spacer(6)

	doc.Heading("Session Statistics")
	doc.Info("Total Path Points", strconv.Itoa(len(act.PathPoints)))
	doc.Info("Total Pinpoints", strconv.Itoa(len(act.Pinpoints)))
	doc.Spacer(6)

	if len(act.Pinpoints) == 0 {
		doc.Text("No pinpoints recorded for this session.")
	} else {
		doc.Heading("Pinpoint Details")
		rows := make([][]string, 0, len(act.Pinpoints))
		for i, p := range act.Pinpoints {
			rows = append(rows, []string{strconv.Itoa(i + 1), orNA(p.Place), orNA(p.Address), orNA(p.Phone), orNA(p.Message)})
		}
		doc.Table(sessionColumns, columnWidths, rows)
	}

	return r.finish(doc, SessionFilename(user.DisplayName(), act.Session.ID, started))
}

// Range renders a day-by-day breakdown of sessions started between start and end inclusive.
func (r *Renderer) Range(ctx context.Context, employeeID uint64, start, end string) (*Report, error) {
	defer observe("range", time.Now())

	rng, err := r.agg.NewRange(start, end)
	if err != nil {
		return nil, err
	}
	user, err := r.users.GetUserByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	h, err := r.agg.History(ctx, employeeID, rng)
	if err != nil {
		return nil, err
	}
	if len(h.Sessions) == 0 {
		return nil, models.Errorf(models.ErrNotFound, "No sessions found for this date range")
	}

	doc := r.newDoc()
	doc.Title("Employee Location Report - Date Range")
	doc.Spacer(6)
	doc.Info("Employee", user.DisplayName())
	doc.Info("Date Range", rng.Start.Format(DisplayLayout)+" to "+rng.End.Format(DisplayLayout))
	doc.Info("Total Days", strconv.Itoa(rng.Days()))
	doc.Info("Report Generated", r.stamp())
	doc.Spacer(6)

	doc.Heading("Overall Summary")
	doc.Info("Total Sessions", strconv.Itoa(len(h.Sessions)))
	doc.Info("Total Pinpoints", strconv.Itoa(len(h.Pinpoints)))
	doc.Info("Total Path Points", strconv.Itoa(len(h.PathPoints)))
	doc.Spacer(6)

	for _, day := range h.Days {
		doc.Heading("Date: " + day.Date.Format(DisplayLayout))
		for i, act := range day.Sessions {
			doc.Subheading(fmt.Sprintf("Session %d", i+1))
			doc.Info("Pinpoints", strconv.Itoa(len(act.Pinpoints)))
			doc.Info("Path Points", strconv.Itoa(len(act.PathPoints)))
			if len(act.Pinpoints) > 0 {
				doc.Text("Notable Locations:")
				for _, p := range act.Pinpoints {
					label, text := pinpointLine(p)
					doc.Bullet(label, text)
				}
			}
			doc.Spacer(4)
		}
		doc.Spacer(6)
	}

	return r.finish(doc, RangeFilename(user.DisplayName(), rng.Start, rng.End))
}

func (r *Renderer) finish(doc Document, filename string) (*Report, error) {
	content, err := doc.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return &Report{Filename: filename, Content: content}, nil
}

func (r *Renderer) stamp() string {
	return r.now().In(r.agg.Location()).Format(stampLayout)
}

func pinpointLine(p *models.Pinpoint) (string, string) {
	label := p.Place
	if label == "" {
		label = "Location"
	}
	var parts []string
	if p.Message != "" {
		parts = append(parts, p.Message)
	}
	if p.Address != "" {
		parts = append(parts, "("+p.Address+")")
	}
	if p.Phone != "" {
		parts = append(parts, "Ph: "+p.Phone)
	}
	return label + ":", strings.Join(parts, " ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func observe(kind string, started time.Time) {
	metrics.ReportRenderDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
