package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  report_requested_topic_name: "reports.requested"
redis:
  host: "localhost"
  port: 6379
attendtrack:
  grpc_addr: ":50051"
  http_addr: ":8080"
  kafka_consumer_group: "track-worker"
  timezone: "Asia/Kolkata"
  reports_dir: "/var/lib/attendtrack/reports"
  report_retention_days: 2
  cors_allowed_origins: ["http://localhost:3000"]
auth:
  jwt_secret: "s3cr3t"
  admin_username: "admin"
geocoder:
  mode: "nominatim"
  timeout_seconds: 10
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "reports.requested", cfg.Kafka.ReportRequestedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.AttendTrack.HTTPAddr)
	require.Equal(t, "Asia/Kolkata", cfg.AttendTrack.Timezone)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AttendTrack.CORSAllowedOrigins)
	require.Equal(t, "s3cr3t", cfg.Auth.JWTSecret)
	require.Equal(t, 10, cfg.Geocoder.TimeoutSeconds)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, Username: "u", Password: "p", DBName: "attend"}
	require.Equal(t, "postgres://u:p@db:5432/attend?sslmode=disable", c.ConnString())

	c.SSLMode = "require"
	require.Equal(t, "postgres://u:p@db:5432/attend?sslmode=require", c.ConnString())
}
