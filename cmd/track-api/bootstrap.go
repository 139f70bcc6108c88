package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/AttendTrack/config"
	"github.com/BearBump/AttendTrack/internal/api/httpapi"
	"github.com/BearBump/AttendTrack/internal/authz"
	"github.com/BearBump/AttendTrack/internal/broker/kafka"
	"github.com/BearBump/AttendTrack/internal/cache/rediscache"
	"github.com/BearBump/AttendTrack/internal/integrations/geocoder"
	"github.com/BearBump/AttendTrack/internal/integrations/geocoder/fake"
	"github.com/BearBump/AttendTrack/internal/integrations/geocoder/nominatim"
	"github.com/BearBump/AttendTrack/internal/integrations/pdfdoc"
	"github.com/BearBump/AttendTrack/internal/services/accounts"
	"github.com/BearBump/AttendTrack/internal/services/archive"
	"github.com/BearBump/AttendTrack/internal/services/history"
	"github.com/BearBump/AttendTrack/internal/services/leads"
	"github.com/BearBump/AttendTrack/internal/services/reports"
	"github.com/BearBump/AttendTrack/internal/services/reportworker"
	"github.com/BearBump/AttendTrack/internal/services/tracking"
	"github.com/BearBump/AttendTrack/internal/storage/pgtracking"
	"github.com/redis/go-redis/v9"
)

type trackAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     trackAPIOpts
	handler  http.Handler
	producer *kafka.Producer
	redis    *redis.Client
	closeDB  func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	grpcAddr := cfg.AttendTrack.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = ":50051"
	}
	httpAddr := cfg.AttendTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.ReportRequestedTopicName
	if topic == "" {
		topic = "report.requested"
	}
	reportsDir := cfg.AttendTrack.ReportsDir
	if reportsDir == "" {
		reportsDir = "reports"
	}
	if cfg.Auth.JWTSecret == "" {
		panic("auth.jwt_secret is required")
	}
	tokenTTL := time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute

	loc := time.UTC
	if cfg.AttendTrack.Timezone != "" {
		loc, err = time.LoadLocation(cfg.AttendTrack.Timezone)
		if err != nil {
			panic(fmt.Sprintf("unknown timezone %q: %v", cfg.AttendTrack.Timezone, err))
		}
	}

	st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)

	rc := rediscache.NewClient(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
	resolver := mustGeocoder(cfg.Geocoder, rc)

	trackingSvc := tracking.New(st, resolver, loc)
	agg := history.New(st, loc)
	renderer := reports.NewRenderer(agg, st, pdfdoc.Factory)
	accountSvc := accounts.New(st, cfg.Auth.JWTSecret, tokenTTL)

	policy, err := authz.New()
	if err != nil {
		panic(err)
	}
	arch, err := archive.New(reportsDir)
	if err != nil {
		panic(err)
	}

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	producer := kafka.NewProducer(brokers)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if cfg.Auth.AdminUsername != "" {
		created, err := accountSvc.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			panic(fmt.Sprintf("bootstrap admin: %v", err))
		}
		slog.Info("admin account checked", "username", cfg.Auth.AdminUsername, "created", created)
	}

	api := httpapi.New(httpapi.Deps{
		Tracking: trackingSvc,
		History:  agg,
		Reports:  renderer,
		Jobs:     reportworker.NewPublisher(agg, st, producer, topic),
		Archive:  arch,
		Accounts: accountSvc,
		Leads:    leads.New(st),
		Policy:   policy,
	}, httpapi.Options{
		CORSAllowedOrigins: cfg.AttendTrack.CORSAllowedOrigins,
		PublicRateLimit:    cfg.AttendTrack.PublicFormRateLimitPerMinute,
		BrochurePath:       cfg.AttendTrack.BrochurePath,
		Logger:             slog.Default(),
	})

	return &trackAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: trackAPIOpts{
			grpcAddr:    grpcAddr,
			httpAddr:    httpAddr,
			swaggerPath: swaggerPath,
		},
		handler:  api.Routes(),
		producer: producer,
		redis:    rc,
		closeDB:  st.Close,
	}
}

// mustGeocoder builds the reverse-geocoding chain: client, Redis cache and throttle, breaker.
func mustGeocoder(cfg config.GeocoderConfig, rc *redis.Client) *geocoder.Resolver {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 || timeout > geocoder.MaxTimeout {
		timeout = geocoder.MaxTimeout
	}
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	perSecond := cfg.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	var client geocoder.Client
	switch cfg.Mode {
	case "", "nominatim":
		client = nominatim.New(cfg.BaseURL, cfg.UserAgent, timeout)
	case "fake":
		client = fake.New()
	default:
		panic(fmt.Sprintf("unknown geocoder mode %q", cfg.Mode))
	}

	return geocoder.NewResolver(client).
		WithTimeout(timeout).
		WithCache(rediscache.New(rc, "geocode:"), cacheTTL).
		WithRateLimit(rediscache.NewRateLimiter(rc), perSecond)
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgtracking.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgtracking.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.handler)
}
