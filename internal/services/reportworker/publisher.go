package reportworker

import (
	"context"
	"time"

	"github.com/BearBump/AttendTrack/internal/broker/messages"
	"github.com/BearBump/AttendTrack/internal/metrics"
	"github.com/BearBump/AttendTrack/internal/models"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type RangeParser interface {
	NewRange(start, end string) (history.Range, error)
}

type Users interface {
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

type Producer interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

// Publisher validates a range report request and queues it for the worker.
type Publisher struct {
	ranges   RangeParser
	users    Users
	producer Producer
	topic    string
	now      func() time.Time
}

func NewPublisher(ranges RangeParser, users Users, producer Producer, topic string) *Publisher {
	return &Publisher{ranges: ranges, users: users, producer: producer, topic: topic, now: time.Now}
}

func (p *Publisher) Enqueue(ctx context.Context, actor models.Actor, employeeID uint64, start, end string) (*messages.ReportRequested, error) {
	r, err := p.ranges.NewRange(start, end)
	if err != nil {
		return nil, err
	}
	u, err := p.users.GetUserByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.Errorf(models.ErrNotFound, "Employee not found")
		}
		return nil, err
	}

	msg := &messages.ReportRequested{
		JobID:       uuid.NewString(),
		EmployeeID:  employeeID,
		StartDate:   r.Start.Format(history.DateLayout),
		EndDate:     r.End.Format(history.DateLayout),
		Filename:    reports.RangeFilename(u.DisplayName(), r.Start, r.End),
		RequestedBy: actor.ID,
		RequestedAt: p.now().UTC(),
	}
	if err := p.producer.PublishJSON(ctx, p.topic, msg.JobID, msg); err != nil {
		return nil, errors.Wrap(err, "publish report job")
	}
	metrics.ReportJobs.WithLabelValues("queued").Inc()
	return msg, nil
}
