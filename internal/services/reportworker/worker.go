package reportworker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/AttendTrack/internal/broker/messages"
	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/archive"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/pkg/errors"
)

type Renderer interface {
	Range(ctx context.Context, employeeID uint64, start, end string) (*reports.Report, error)
}

type Store interface {
	Save(name string, content []byte) (string, error)
	Cleanup(olderThan time.Duration) (int, error)
}

// Consumer delivers decoded job messages; see kafka.Consumer.ConsumeJSON.
type Consumer interface {
	ConsumeJSON(ctx context.Context, newTarget func() any, handle func(key string, v any) error, invalid func(key string, err error)) error
}

// Worker renders queued range reports into the archive and prunes old ones.
type Worker struct {
	renderer Renderer
	store    Store
	backoff  *Backoff

	retention       time.Duration
	cleanupInterval time.Duration

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCleanupUnixNano atomic.Int64
	lastTriggerUnixNano atomic.Int64
	lastJobUnixNano     atomic.Int64
	jobsDone            atomic.Int64
	jobsFailed          atomic.Int64
	reportsRemoved      atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(renderer Renderer, store Store) *Worker {
	return &Worker{
		renderer:          renderer,
		store:             store,
		backoff:           NewBackoff(DefaultBackoffConfig()),
		retention:         archive.DefaultRetention,
		cleanupInterval:   time.Hour,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (w *Worker) WithSettings(retention, cleanupInterval time.Duration) *Worker {
	if retention > 0 {
		w.retention = retention
	}
	if cleanupInterval > 0 {
		w.cleanupInterval = cleanupInterval
	}
	return w
}

func (w *Worker) WithBackoff(cfg BackoffConfig) *Worker {
	w.backoff = NewBackoff(cfg)
	return w
}

func (w *Worker) Retention() time.Duration       { return w.retention }
func (w *Worker) CleanupInterval() time.Duration { return w.cleanupInterval }

// Trigger forces an immediate retention sweep (best-effort, non-blocking).
func (w *Worker) Trigger() {
	w.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCleanupAt  *time.Time `json:"lastCleanupAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	LastJobAt      *time.Time `json:"lastJobAt,omitempty"`
	JobsDone       int64      `json:"jobsDone"`
	JobsFailed     int64      `json:"jobsFailed"`
	ReportsRemoved int64      `json:"reportsRemoved"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (w *Worker) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, w.startedAtUnixNano).UTC(),
		LastCleanupAt:  unixPtr(w.lastCleanupUnixNano.Load()),
		LastTriggerAt:  unixPtr(w.lastTriggerUnixNano.Load()),
		LastJobAt:      unixPtr(w.lastJobUnixNano.Load()),
		JobsDone:       w.jobsDone.Load(),
		JobsFailed:     w.jobsFailed.Load(),
		ReportsRemoved: w.reportsRemoved.Load(),
		InFlight:       w.inFlight.Load(),
	}
	w.lastErrorMu.Lock()
	st.LastError = w.lastError
	w.lastErrorMu.Unlock()
	return st
}

func unixPtr(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	t := time.Unix(0, n).UTC()
	return &t
}

func (w *Worker) setError(err error) {
	w.lastErrorMu.Lock()
	w.lastError = err.Error()
	w.lastErrorMu.Unlock()
}

// Run sweeps the archive every cleanup interval and on Trigger until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	t := time.NewTicker(w.cleanupInterval)
	defer t.Stop()

	w.cleanupOnce()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.cleanupOnce()
		case <-w.triggerCh:
			w.cleanupOnce()
		}
	}
}

func (w *Worker) cleanupOnce() {
	w.lastCleanupUnixNano.Store(time.Now().UTC().UnixNano())
	n, err := w.store.Cleanup(w.retention)
	if n > 0 {
		w.reportsRemoved.Add(int64(n))
		metrics.ArchivedReportsRemoved.Add(float64(n))
		slog.Info("archived reports removed", "count", n, "retention", w.retention.String())
	}
	if err != nil {
		slog.Error("cleanup reports", "error", err.Error())
		w.setError(err)
	}
}

// Consume processes report jobs until ctx is done, restarting the consumer with backoff.
func (w *Worker) Consume(ctx context.Context, c Consumer) error {
	fails := 0
	for {
		err := c.ConsumeJSON(ctx,
			func() any { return &messages.ReportRequested{} },
			func(key string, v any) error {
				fails = 0
				return w.Handle(ctx, v.(*messages.ReportRequested))
			},
			func(key string, err error) {
				fails = 0
				w.fail(errors.Wrap(err, "decode report job"), key)
			},
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fails++
		delay := w.backoff.Delay(fails)
		slog.Error("report consumer stopped", "error", err, "retry_in", delay.String())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Handle renders one report job. Unrenderable jobs are dropped; infrastructure errors
// are returned so the message is not committed. The report is stored under the file
// name promised to the requester at enqueue time when that name is usable.
func (w *Worker) Handle(ctx context.Context, msg *messages.ReportRequested) error {
	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	w.lastJobUnixNano.Store(time.Now().UTC().UnixNano())

	rep, err := w.renderer.Range(ctx, msg.EmployeeID, msg.StartDate, msg.EndDate)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInvalidInput) {
		w.fail(err, msg.JobID)
		return nil
	}
	if err != nil {
		metrics.ReportJobs.WithLabelValues("retry").Inc()
		w.setError(err)
		return errors.Wrapf(err, "render job %s", msg.JobID)
	}

	name := rep.Filename
	if archive.ValidName(msg.Filename) {
		name = msg.Filename
	}
	path, err := w.store.Save(name, rep.Content)
	if err != nil {
		metrics.ReportJobs.WithLabelValues("retry").Inc()
		w.setError(err)
		return errors.Wrapf(err, "store job %s", msg.JobID)
	}

	w.jobsDone.Add(1)
	metrics.ReportJobs.WithLabelValues("done").Inc()
	slog.Info("report stored", "job_id", msg.JobID, "employee_id", msg.EmployeeID, "path", path)
	return nil
}

func (w *Worker) fail(err error, jobID string) {
	w.jobsFailed.Add(1)
	metrics.ReportJobs.WithLabelValues("failed").Inc()
	w.setError(err)
	slog.Warn("report job dropped", "job_id", jobID, "error", err.Error())
}
