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
redis:
  host: "localhost"
  port: 6379
kafka:
  host: "localhost"
  port: 9092
  report_completed_topic_name: "report.completed"
provider:
  base_url: "https://api.17track.net/track/v2.2"
  api_key: "secret"
  timeout_seconds: 10
trackdash:
  http_addr: ":8080"
  batch_cap: 400
  batch_concurrency: 8
  rate_limit_per_minute: 120
dashboard:
  page_id: "1lviD"
  connector: "googleSheets"
  mode: "view"
  alias: "ds0"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "report.completed", cfg.Kafka.ReportCompletedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "secret", cfg.Provider.APIKey)
	require.Equal(t, 400, cfg.TrackDash.BatchCap)
	require.Equal(t, "ds0", cfg.Dashboard.Alias)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	require.Error(t, err)
}
