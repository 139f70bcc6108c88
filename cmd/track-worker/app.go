package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/AttendTrack/config"
	"github.com/BearBump/AttendTrack/internal/broker/kafka"
	"github.com/BearBump/AttendTrack/internal/integrations/pdfdoc"
	"github.com/BearBump/AttendTrack/internal/services/archive"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/BearBump/AttendTrack/internal/services/reportworker"
	"github.com/BearBump/AttendTrack/internal/storage/pgtracking"
	"golang.org/x/sync/errgroup"
)

// reportStore is what rendering needs from storage.
type reportStore interface {
	history.Repository
	reports.Users
}

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo reportStore, closeFn func(), err error)
	newConsumer func(cfg *config.Config, topic, group string) (c reportworker.Consumer, closeFn func() error)
	newArchive  func(dir string) (reportworker.Store, error)
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (reportStore, func(), error) {
			st, err := pgtracking.New(cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newConsumer: func(cfg *config.Config, topic, group string) (reportworker.Consumer, func() error) {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			c := kafka.NewConsumer(brokers, topic, group)
			return c, c.Close
		},
		newArchive: func(dir string) (reportworker.Store, error) {
			return archive.New(dir)
		},
	}
}

type workerSettings struct {
	topic           string
	group           string
	reportsDir      string
	retention       time.Duration
	cleanupInterval time.Duration
	loc             *time.Location
}

func resolveWorkerSettings(cfg *config.Config) (workerSettings, error) {
	s := workerSettings{
		topic:           cfg.Kafka.ReportRequestedTopicName,
		group:           cfg.AttendTrack.KafkaConsumerGroup,
		reportsDir:      cfg.AttendTrack.ReportsDir,
		retention:       time.Duration(cfg.AttendTrack.ReportRetentionDays) * 24 * time.Hour,
		cleanupInterval: time.Duration(cfg.AttendTrack.CleanupIntervalSeconds) * time.Second,
		loc:             time.UTC,
	}
	if s.topic == "" {
		s.topic = "report.requested"
	}
	if s.group == "" {
		s.group = "track-worker"
	}
	if s.reportsDir == "" {
		s.reportsDir = "reports"
	}
	if s.retention <= 0 {
		s.retention = archive.DefaultRetention
	}
	if s.cleanupInterval <= 0 {
		s.cleanupInterval = time.Hour
	}
	if cfg.AttendTrack.Timezone != "" {
		loc, err := time.LoadLocation(cfg.AttendTrack.Timezone)
		if err != nil {
			return s, fmt.Errorf("unknown timezone %q: %w", cfg.AttendTrack.Timezone, err)
		}
		s.loc = loc
	}
	return s, nil
}

func RunTrackWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	s, err := resolveWorkerSettings(cfg)
	if err != nil {
		return err
	}

	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	store, err := f.newArchive(s.reportsDir)
	if err != nil {
		return err
	}
	consumer, closeConsumer := f.newConsumer(cfg, s.topic, s.group)
	if closeConsumer != nil {
		defer func() { _ = closeConsumer() }()
	}

	renderer := reports.NewRenderer(history.New(repo, s.loc), repo, pdfdoc.Factory)
	w := reportworker.New(renderer, store).WithSettings(s.retention, s.cleanupInterval)

	httpOpts.worker = w
	httpOpts.settings = s

	slog.Info("report worker started", "topic", s.topic, "group", s.group, "reports_dir", s.reportsDir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return w.Consume(gctx, consumer) })
	g.Go(func() error { return runWorkerHTTPServer(gctx, httpOpts) })
	return g.Wait()
}
