// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Conversation ConversationConfig      `mapstructure:"conversation"`
	Intent       IntentConfig            `mapstructure:"intent"`
	Matching     MatchingConfig          `mapstructure:"matching"`
	Classifier   ClassifierConfig        `mapstructure:"classifier"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Registry     RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses        []string `mapstructure:"addresses"`
	Username         string   `mapstructure:"username"`
	Password         string   `mapstructure:"password"`
	SSLEnabled       bool     `mapstructure:"ssl_enabled"`
	URL              string   `mapstructure:"url"` // Single URL for backwards compatibility
	OpportunityIndex string   `mapstructure:"opportunity_index"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// ProfileCacheTTL bounds how long a cached profile may serve reads,
	// in seconds.
	ProfileCacheTTL int `mapstructure:"profile_cache_ttl"`
}

// --- Conversation Core Config ---

// ConversationConfig carries the context-tracker knobs: idle expiry,
// turn ring size and the simplify/escalate thresholds. These are
// deployment configuration, never constants in the core.
type ConversationConfig struct {
	SessionTimeoutSeconds int `mapstructure:"session_timeout_seconds"`
	MaxTurns              int `mapstructure:"max_turns"`
	SimplifyAfter         int `mapstructure:"simplify_after"` // consecutive clarifications
	EscalateAfter         int `mapstructure:"escalate_after"` // consecutive failures
}

// SessionTimeout returns the idle expiry as a duration.
func (c ConversationConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutSeconds) * time.Second
}

// IntentConfig carries the routing thresholds.
type IntentConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

// MatchingConfig carries the ranking knobs. PovertyLineMonthly is the
// configured income cutoff that defines urgent and financial need; the
// engine never assumes a figure.
type MatchingConfig struct {
	PovertyLineMonthly float64 `mapstructure:"poverty_line_monthly"`
	MaxResults         int     `mapstructure:"max_results"`
	SearchTimeoutMs    int     `mapstructure:"search_timeout_ms"`
	RetryBackoffMs     int     `mapstructure:"retry_backoff_ms"`
}

// SearchTimeout bounds one opportunity-source call.
func (c MatchingConfig) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMs) * time.Millisecond
}

// RetryBackoff is the pause before the single automatic retry.
func (c MatchingConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// ClassifierConfig points at the external NLU classification endpoint used
// when a turn arrives without a classification block in its variables.
type ClassifierConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds settings for SMS/email delivery.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled      bool   `mapstructure:"enabled"`
			FromEmail    string `mapstructure:"from_email"`
			SupportEmail string `mapstructure:"support_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RegistryConfig points at the activity registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
