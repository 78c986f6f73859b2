package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GoogleAds  GoogleAdsConfig  `yaml:"google_ads"`
	Audit      AuditConfig      `yaml:"audit"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// GoogleAdsConfig holds the vendor API configuration
type GoogleAdsConfig struct {
	DeveloperToken string `yaml:"developer_token"`
	CustomerID     string `yaml:"customer_id"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c GoogleAdsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuditConfig holds audit run configuration
type AuditConfig struct {
	IntervalMinutes int      `yaml:"interval_minutes"`
	LookbackDays    int      `yaml:"lookback_days"`
	MinCost         float64  `yaml:"min_cost"`
	MinClicks       int64    `yaml:"min_clicks"`
	Sections        []string `yaml:"sections"` // empty means all sections
	CSVDir          string   `yaml:"csv_dir"`  // when set, records load from CSV exports instead of the API
	CacheTTLMinutes int      `yaml:"cache_ttl_minutes"`
}

// Interval returns the scheduled run interval as a duration
func (c AuditConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// CacheTTL returns the record cache TTL as a duration
func (c AuditConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// StorageConfig holds report archive configuration
type StorageConfig struct {
	Type          string `yaml:"type"` // "local" or "aws"
	LocalPath     string `yaml:"local_path"`
	S3Bucket      string `yaml:"s3_bucket"`
	DynamoDBTable string `yaml:"dynamodb_table"`
	AWSRegion     string `yaml:"aws_region"`
	AWSProfile    string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
	MaxReports    int    `yaml:"max_reports"` // in-memory retention per customer
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// RedisConfig holds the record cache configuration
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	DB      int    `yaml:"db"`
}

// DatabaseConfig holds the Postgres report archive configuration
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// BreakpointConfig is one (lower bound, label) pair of a breakpoint table
type BreakpointConfig struct {
	Lower float64 `yaml:"lower"`
	Label string  `yaml:"label"`
}

// ThresholdsConfig overrides the built-in breakpoint tables. Empty lists
// fall back to the canonical defaults.
type ThresholdsConfig struct {
	QualityScore []BreakpointConfig `yaml:"quality_score"`
	CTR          []BreakpointConfig `yaml:"ctr"`
	Efficiency   []BreakpointConfig `yaml:"efficiency"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.GoogleAds.BaseURL == "" {
		cfg.GoogleAds.BaseURL = "https://googleads.googleapis.com"
	}
	if cfg.GoogleAds.TimeoutSeconds == 0 {
		cfg.GoogleAds.TimeoutSeconds = 60
	}
	if cfg.GoogleAds.MaxRetries == 0 {
		cfg.GoogleAds.MaxRetries = 3
	}
	if cfg.Audit.IntervalMinutes == 0 {
		cfg.Audit.IntervalMinutes = 1440 // daily
	}
	if cfg.Audit.LookbackDays == 0 {
		cfg.Audit.LookbackDays = 30
	}
	if cfg.Audit.MinCost == 0 {
		cfg.Audit.MinCost = 10
	}
	if cfg.Audit.MinClicks == 0 {
		cfg.Audit.MinClicks = 20
	}
	if cfg.Audit.CacheTTLMinutes == 0 {
		cfg.Audit.CacheTTLMinutes = 60
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Storage.MaxReports == 0 {
		cfg.Storage.MaxReports = 50
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if token := os.Getenv("GOOGLE_ADS_DEVELOPER_TOKEN"); token != "" {
		cfg.GoogleAds.DeveloperToken = token
	}
	if customerID := os.Getenv("GOOGLE_ADS_CUSTOMER_ID"); customerID != "" {
		cfg.GoogleAds.CustomerID = customerID
	}
	if baseURL := os.Getenv("GOOGLE_ADS_BASE_URL"); baseURL != "" {
		cfg.GoogleAds.BaseURL = baseURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if bucket := os.Getenv("AUDIT_S3_BUCKET"); bucket != "" {
		cfg.Storage.S3Bucket = bucket
	}
	if table := os.Getenv("AUDIT_DYNAMODB_TABLE"); table != "" {
		cfg.Storage.DynamoDBTable = table
	}

	// Database override (critical for ECS deployment where config.yaml has local defaults)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
		cfg.Database.Enabled = true
	}

	return cfg, nil
}

// CustomerIDDigits strips the dashes from a customer ID ("123-456-7890").
func (c GoogleAdsConfig) CustomerIDDigits() string {
	return strings.ReplaceAll(c.CustomerID, "-", "")
}
