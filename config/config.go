package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Provider  ProviderConfig  `yaml:"provider"`
	TrackDash TrackDashConfig `yaml:"trackdash"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type KafkaConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	ReportCompletedTopicName string `yaml:"report_completed_topic_name"`
}

type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type TrackDashConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	SwaggerPath string `yaml:"swagger_path"`

	CountryCodesPath string `yaml:"country_codes_path"`

	// Hard cap on provider lookups per run. This is a cost guard,
	// not a technical limit.
	BatchCap int `yaml:"batch_cap"`

	BatchConcurrency      int `yaml:"batch_concurrency"`
	ResolveTimeoutSeconds int `yaml:"resolve_timeout_seconds"`
	RateLimitPerMinute    int `yaml:"rate_limit_per_minute"`
	RecordCacheTTLSeconds int `yaml:"record_cache_ttl_seconds"`
}

type DashboardConfig struct {
	ReportBaseURL    string `yaml:"report_base_url"`
	TemplateReportID string `yaml:"template_report_id"`
	PageID           string `yaml:"page_id"`
	Connector        string `yaml:"connector"`
	Mode             string `yaml:"mode"`
	Alias            string `yaml:"alias"`
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
