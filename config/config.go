package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	AttendTrack AttendTrackConfig `yaml:"attendtrack"`
	Auth        AuthConfig        `yaml:"auth"`
	Geocoder    GeocoderConfig    `yaml:"geocoder"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ReportRequestedTopicName string `yaml:"report_requested_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AttendTrackConfig struct {
	GRPCAddr           string `yaml:"grpc_addr"`
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	// IANA zone used for calendar-day bucketing and report dates. Empty means UTC.
	Timezone string `yaml:"timezone"`

	ReportsDir             string `yaml:"reports_dir"`
	ReportRetentionDays    int    `yaml:"report_retention_days"`
	CleanupIntervalSeconds int    `yaml:"cleanup_interval_seconds"`

	BrochurePath                 string   `yaml:"brochure_path"`
	CORSAllowedOrigins           []string `yaml:"cors_allowed_origins"`
	PublicFormRateLimitPerMinute int      `yaml:"public_form_rate_limit_per_minute"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	AdminUsername   string `yaml:"admin_username"`
	AdminPassword   string `yaml:"admin_password"`
}

type GeocoderConfig struct {
	Mode               string `yaml:"mode"` // "nominatim" | "fake"
	BaseURL            string `yaml:"base_url"`
	UserAgent          string `yaml:"user_agent"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RateLimitPerSecond int    `yaml:"rate_limit_per_second"`
	CacheTTLSeconds    int    `yaml:"cache_ttl_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

func (c *DatabaseConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}
