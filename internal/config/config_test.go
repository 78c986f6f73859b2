package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
google_ads:
  developer_token: "dev-token"
  customer_id: "123-456-7890"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "https://googleads.googleapis.com", cfg.GoogleAds.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.GoogleAds.Timeout())
	assert.Equal(t, 3, cfg.GoogleAds.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Audit.Interval())
	assert.Equal(t, 30, cfg.Audit.LookbackDays)
	assert.Equal(t, 10.0, cfg.Audit.MinCost)
	assert.Equal(t, int64(20), cfg.Audit.MinClicks)
	assert.Equal(t, time.Hour, cfg.Audit.CacheTTL())
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./data", cfg.Storage.LocalPath)
	assert.Equal(t, 50, cfg.Storage.MaxReports)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "audit.internal"
google_ads:
  developer_token: "dev-token"
  customer_id: "123-456-7890"
  timeout_seconds: 30
audit:
  interval_minutes: 60
  min_cost: 25.5
  min_clicks: 100
  sections:
    - quality_score
    - search_terms
storage:
  type: "aws"
  s3_bucket: "audit-reports"
  dynamodb_table: "audit-runs"
  aws_region: "eu-west-1"
thresholds:
  ctr:
    - lower: 0
      label: "Poor"
    - lower: 2
      label: "Good"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.GoogleAds.Timeout())
	assert.Equal(t, time.Hour, cfg.Audit.Interval())
	assert.Equal(t, 25.5, cfg.Audit.MinCost)
	assert.Equal(t, []string{"quality_score", "search_terms"}, cfg.Audit.Sections)
	assert.Equal(t, "aws", cfg.Storage.Type)
	assert.Equal(t, "audit-reports", cfg.Storage.S3Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.AWSRegion)
	require.Len(t, cfg.Thresholds.CTR, 2)
	assert.Equal(t, 2.0, cfg.Thresholds.CTR[1].Lower)
	assert.Equal(t, "Good", cfg.Thresholds.CTR[1].Label)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [oops")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
google_ads:
  developer_token: "file-token"
  customer_id: "123-456-7890"
`)

	t.Setenv("GOOGLE_ADS_DEVELOPER_TOKEN", "env-token")
	t.Setenv("GOOGLE_ADS_CUSTOMER_ID", "999-888-7777")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("DATABASE_URL", "postgres://audit:pw@db.internal/audit")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.GoogleAds.DeveloperToken)
	assert.Equal(t, "999-888-7777", cfg.GoogleAds.CustomerID)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "postgres://audit:pw@db.internal/audit", cfg.Database.URL)
	assert.True(t, cfg.Database.Enabled)
}

func TestCustomerIDDigits(t *testing.T) {
	c := GoogleAdsConfig{CustomerID: "123-456-7890"}
	assert.Equal(t, "1234567890", c.CustomerIDDigits())
}

func TestGetHostECS(t *testing.T) {
	t.Setenv("ECS_CONTAINER_METADATA_URI", "http://169.254.170.2/v3")
	c := ServerConfig{Host: "localhost"}
	assert.Equal(t, "0.0.0.0", c.GetHost())
}

func TestGetAWSProfileOverride(t *testing.T) {
	c := StorageConfig{AWSProfile: "dev"}

	t.Setenv("AWS_PROFILE_OVERRIDE", "staging")
	assert.Equal(t, "staging", c.GetAWSProfile())

	t.Setenv("AWS_PROFILE_OVERRIDE", "iam")
	assert.Equal(t, "", c.GetAWSProfile())
}
