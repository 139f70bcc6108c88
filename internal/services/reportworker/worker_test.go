package reportworker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/AttendTrack/internal/broker/messages"
	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	err error
	got []string
}

func (r *fakeRenderer) Range(ctx context.Context, employeeID uint64, start, end string) (*reports.Report, error) {
	r.got = append(r.got, start+".."+end)
	if r.err != nil {
		return nil, r.err
	}
	return &reports.Report{Filename: "Ann_" + start + "_to_" + end + "_Report.pdf", Content: []byte("%PDF")}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	sweeps  int
	removed int
	err     error
}

func (s *fakeStore) Save(name string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if s.saved == nil {
		s.saved = map[string][]byte{}
	}
	s.saved[name] = content
	return "/reports/" + name, nil
}

func (s *fakeStore) Cleanup(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	return s.removed, nil
}

func (s *fakeStore) sweepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps
}

func job() *messages.ReportRequested {
	return &messages.ReportRequested{JobID: "j1", EmployeeID: 7, StartDate: "2024-01-01", EndDate: "2024-01-03"}
}

func TestHandle_StoresReport(t *testing.T) {
	r, st := &fakeRenderer{}, &fakeStore{}
	w := New(r, st)

	require.NoError(t, w.Handle(context.Background(), job()))
	require.Equal(t, []string{"2024-01-01..2024-01-03"}, r.got)
	require.Contains(t, st.saved, "Ann_2024-01-01_to_2024-01-03_Report.pdf")
	require.EqualValues(t, 1, w.Stats().JobsDone)
}

func TestHandle_StoresUnderEnqueuedFilename(t *testing.T) {
	// сотрудника переименовали между постановкой в очередь и рендером
	r, st := &fakeRenderer{}, &fakeStore{}
	w := New(r, st)

	msg := job()
	msg.Filename = "Ann_Old_Name_2024-01-01_to_2024-01-03_Report.pdf"
	require.NoError(t, w.Handle(context.Background(), msg))
	require.Contains(t, st.saved, "Ann_Old_Name_2024-01-01_to_2024-01-03_Report.pdf")
	require.NotContains(t, st.saved, "Ann_2024-01-01_to_2024-01-03_Report.pdf")
}

func TestHandle_UnusableEnqueuedFilenameFallsBack(t *testing.T) {
	for _, name := range []string{"../escape.pdf", "report.txt", ".hidden.pdf"} {
		st := &fakeStore{}
		w := New(&fakeRenderer{}, st)

		msg := job()
		msg.Filename = name
		require.NoError(t, w.Handle(context.Background(), msg))
		require.Len(t, st.saved, 1, name)
		require.Contains(t, st.saved, "Ann_2024-01-01_to_2024-01-03_Report.pdf", name)
	}
}

func TestHandle_DropsUnrenderableJobs(t *testing.T) {
	w := New(&fakeRenderer{err: models.Errorf(models.ErrNotFound, "No sessions found for this date range")}, &fakeStore{})

	require.NoError(t, w.Handle(context.Background(), job()))

	st := w.Stats()
	require.EqualValues(t, 1, st.JobsFailed)
	require.Equal(t, "No sessions found for this date range", st.LastError)
}

func TestHandle_InfraErrorIsReturned(t *testing.T) {
	w := New(&fakeRenderer{}, &fakeStore{err: errors.New("disk full")})
	err := w.Handle(context.Background(), job())
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Zero(t, w.Stats().JobsDone)
}

func TestRun_SweepsOnStartAndTrigger(t *testing.T) {
	st := &fakeStore{removed: 1}
	w := New(&fakeRenderer{}, st).WithSettings(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return st.sweepCount() >= 1 }, time.Second, 5*time.Millisecond)
	w.Trigger()
	require.Eventually(t, func() bool { return st.sweepCount() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.GreaterOrEqual(t, w.Stats().ReportsRemoved, int64(2))
	require.NotNil(t, w.Stats().LastTriggerAt)
}

type flakyConsumer struct {
	calls  int
	cancel context.CancelFunc
}

func (c *flakyConsumer) ConsumeJSON(ctx context.Context, newTarget func() any, handle func(key string, v any) error, invalid func(key string, err error)) error {
	c.calls++
	if c.calls >= 3 {
		c.cancel()
		return ctx.Err()
	}
	return errors.New("broker down")
}

func TestConsume_RestartsWithBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &flakyConsumer{cancel: cancel}
	w := New(&fakeRenderer{}, &fakeStore{}).WithBackoff(BackoffConfig{Step1: time.Millisecond, Step2: time.Millisecond})

	err := w.Consume(ctx, c)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 3, c.calls)
}

// scriptedConsumer feeds raw values through the worker's callbacks the way the
// kafka consumer does, then waits for cancellation.
type scriptedConsumer struct {
	values [][]byte
	cancel context.CancelFunc
}

func (c *scriptedConsumer) ConsumeJSON(ctx context.Context, newTarget func() any, handle func(key string, v any) error, invalid func(key string, err error)) error {
	for i, raw := range c.values {
		v := newTarget()
		if err := json.Unmarshal(raw, v); err != nil {
			invalid(fmt.Sprintf("k%d", i), err)
			continue
		}
		if err := handle(fmt.Sprintf("k%d", i), v); err != nil {
			return err
		}
	}
	c.cancel()
	<-ctx.Done()
	return ctx.Err()
}

func TestConsume_DecodedJobsAndInvalidValues(t *testing.T) {
	good, err := json.Marshal(job())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	st := &fakeStore{}
	w := New(&fakeRenderer{}, st)

	err = w.Consume(ctx, &scriptedConsumer{values: [][]byte{[]byte("{not json"), good}, cancel: cancel})
	require.ErrorIs(t, err, context.Canceled)

	stats := w.Stats()
	require.EqualValues(t, 1, stats.JobsDone)
	require.EqualValues(t, 1, stats.JobsFailed)
	require.Contains(t, st.saved, "Ann_2024-01-01_to_2024-01-03_Report.pdf")
}

func TestBackoff_Delay(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	require.Equal(t, time.Second, b.Delay(0))
	require.Equal(t, 5*time.Second, b.Delay(2))
	require.Equal(t, 15*time.Second, b.Delay(3))
	require.Equal(t, time.Minute, b.Delay(100))
}
