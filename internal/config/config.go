package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadHost        string        `mapstructure:"read_host"`
	ReadPort        int           `mapstructure:"read_port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// TemporalConfig holds Temporal configuration
type TemporalConfig struct {
	HostPort                           string  `mapstructure:"host_port"`
	Namespace                          string  `mapstructure:"namespace"`
	WebhookHighTaskQueue               string  `mapstructure:"webhook_high_task_queue"`
	WebhookTaskQueue                   string  `mapstructure:"webhook_task_queue"`
	BulkTaskQueue                      string  `mapstructure:"bulk_task_queue"`
	MaxConcurrentActivityExecutionSize int     `mapstructure:"max_concurrent_activity_execution_size"`
	WorkerActivitiesPerSecond          float64 `mapstructure:"worker_activities_per_second"`
	MaxConcurrentActivityTaskPollers   int     `mapstructure:"max_concurrent_activity_task_pollers"`
}

// RedisConfig holds the shared-state backend configuration.
// An empty Addr keeps breaker, limiter and cache state in process.
type RedisConfig struct {
	Addr                string        `mapstructure:"addr"`
	Password            string        `mapstructure:"password"`
	DB                  int           `mapstructure:"db"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
	// CORSOrigins is empty to allow every origin
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AuthConfig holds authentication configuration for operator routes
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// WorkerConfig holds in-process worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// WebhookConfig holds inbound webhook verification settings
type WebhookConfig struct {
	Secret    string        `mapstructure:"secret"`
	Tolerance time.Duration `mapstructure:"tolerance"`
	// SkipVerification accepts unsigned webhooks; local development only
	SkipVerification bool `mapstructure:"skip_verification"`
}

// UpstreamConfig holds the HTTP settings shared by every outbound client
type UpstreamConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	APIToken           string        `mapstructure:"api_token"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRedirects       int           `mapstructure:"max_redirects"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	ClientVersion      string        `mapstructure:"client_version"`
}

// KrayinConfig holds CRM client configuration
type KrayinConfig struct {
	UpstreamConfig `mapstructure:",squash"`
	PipelineID     int `mapstructure:"pipeline_id"`
	StageID        int `mapstructure:"stage_id"`
	LeadSourceID   int `mapstructure:"lead_source_id"`
	LeadTypeID     int `mapstructure:"lead_type_id"`
	UserID         int `mapstructure:"user_id"`
}

// ChatwootConfig holds chat platform client configuration
type ChatwootConfig struct {
	UpstreamConfig `mapstructure:",squash"`
	AccountID      int `mapstructure:"account_id"`
}

// InsightsConfig holds the reporting client configuration
type InsightsConfig struct {
	UpstreamConfig `mapstructure:",squash"`
	AccountID      int           `mapstructure:"account_id"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	StaleTTL       time.Duration `mapstructure:"stale_ttl"`
}

// ResilienceConfig holds rate limit, circuit breaker and retry settings per upstream call class
type ResilienceConfig struct {
	RequestsPerMinute        int           `mapstructure:"requests_per_minute"`
	ConsentRequestsPerMinute int           `mapstructure:"consent_requests_per_minute"`
	BreakerThreshold         int           `mapstructure:"breaker_threshold"`
	ConsentBreakerThreshold  int           `mapstructure:"consent_breaker_threshold"`
	BreakerTimeout           time.Duration `mapstructure:"breaker_timeout"`
	RetryAttempts            int           `mapstructure:"retry_attempts"`
	RetryBaseDelay           time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay            time.Duration `mapstructure:"retry_max_delay"`
	LeadCacheTTL             time.Duration `mapstructure:"lead_cache_ttl"`
	StagesCacheTTL           time.Duration `mapstructure:"stages_cache_ttl"`
	PipelinesCacheTTL        time.Duration `mapstructure:"pipelines_cache_ttl"`
}

// ConsentConfig holds LGPD consent settings
type ConsentConfig struct {
	DefaultValidityDays int            `mapstructure:"default_validity_days"`
	ValidityDays        map[string]int `mapstructure:"validity_days"`
	RequireForSync      bool           `mapstructure:"require_for_sync"`
}

// ExportConfig holds data export settings
type ExportConfig struct {
	Secret          string        `mapstructure:"secret"`
	LinkTTL         time.Duration `mapstructure:"link_ttl"`
	Bucket          string        `mapstructure:"bucket"`
	Prefix          string        `mapstructure:"prefix"`
	Region          string        `mapstructure:"region"`
	EndpointURL     string        `mapstructure:"endpoint_url"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	PublicBaseURL   string        `mapstructure:"public_base_url"`
}

// SchedulerConfig holds job retry settings
type SchedulerConfig struct {
	WebhookMaxAttempts int             `mapstructure:"webhook_max_attempts"`
	BulkMaxAttempts    int             `mapstructure:"bulk_max_attempts"`
	Schedule           []time.Duration `mapstructure:"schedule"`
	WebhookTimeout     time.Duration   `mapstructure:"webhook_timeout"`
	BulkTimeout        time.Duration   `mapstructure:"bulk_timeout"`
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// EventBridgeConfig holds configuration for event-bridge
type EventBridgeConfig struct {
	BaseConfig `mapstructure:",squash"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
}

// WorkerCoreConfig holds configuration for worker-core
type WorkerCoreConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Krayin     KrayinConfig     `mapstructure:"krayin"`
	Chatwoot   ChatwootConfig   `mapstructure:"chatwoot"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Consent    ConsentConfig    `mapstructure:"consent"`
	Export     ExportConfig     `mapstructure:"export"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Temporal   TemporalConfig `mapstructure:"temporal"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Webhook    WebhookConfig  `mapstructure:"webhook"`
	Insights   InsightsConfig `mapstructure:"insights"`
	// Chatwoot is optional; when set, consent changes are written back to the contact
	Chatwoot   ChatwootConfig   `mapstructure:"chatwoot"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	Consent    ConsentConfig    `mapstructure:"consent"`
	Export     ExportConfig     `mapstructure:"export"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// MigrateConfig holds configuration for the migrate command
type MigrateConfig struct {
	BaseConfig     `mapstructure:",squash"`
	Database       DatabaseConfig `mapstructure:"database"`
	MigrationsPath string         `mapstructure:"migrations_path"`
}

// LoadEventBridgeConfig loads configuration for event-bridge
func LoadEventBridgeConfig(configFile string, envPath string) (*EventBridgeConfig, error) {
	v := configureViper("event-bridge", configFile, envPath)

	setNATSDefaults(v)
	setTemporalDefaults(v)
	v.SetDefault("nats.consumer_name", "event-bridge")

	var config EventBridgeConfig
	if err := readAndUnmarshal(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadWorkerCoreConfig loads configuration for worker-core
func LoadWorkerCoreConfig(configFile string, envPath string) (*WorkerCoreConfig, error) {
	v := configureViper("worker-core", configFile, envPath)

	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setRedisDefaults(v)
	setResilienceDefaults(v)
	setConsentDefaults(v)
	setExportDefaults(v)
	setUpstreamDefaults(v, "krayin")
	setUpstreamDefaults(v, "chatwoot")
	v.SetDefault("scheduler.webhook_max_attempts", 5)
	v.SetDefault("scheduler.bulk_max_attempts", 3)
	v.SetDefault("scheduler.schedule", []string{"60s", "120s", "300s", "600s", "1800s"})
	v.SetDefault("scheduler.webhook_timeout", "120s")
	v.SetDefault("scheduler.bulk_timeout", "3600s")
	v.SetDefault("audit.retention_days", 1825)
	v.SetDefault("krayin.pipeline_id", 1)

	var config WorkerCoreConfig
	if err := readAndUnmarshal(v, &config); err != nil {
		return nil, err
	}

	if config.Krayin.BaseURL == "" {
		return nil, errors.New("krayin.base_url is required")
	}
	if config.Chatwoot.BaseURL == "" {
		return nil, errors.New("chatwoot.base_url is required")
	}
	return &config, nil
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("webhook.tolerance", "300s")
	v.SetDefault("worker.pool_size", 10)
	v.SetDefault("worker.queue_size", 1000)
	v.SetDefault("insights.cache_ttl", "300s")
	v.SetDefault("insights.stale_ttl", "3600s")
	setDatabaseDefaults(v)
	setTemporalDefaults(v)
	setNATSDefaults(v)
	setRedisDefaults(v)
	setResilienceDefaults(v)
	setConsentDefaults(v)
	setExportDefaults(v)
	setUpstreamDefaults(v, "insights")
	setUpstreamDefaults(v, "chatwoot")

	var config APIConfig
	if err := readAndUnmarshal(v, &config); err != nil {
		return nil, err
	}

	if config.Webhook.Secret == "" && !config.Webhook.SkipVerification {
		return nil, errors.New("webhook.secret is required")
	}
	if config.Export.Secret == "" {
		return nil, errors.New("export.secret is required")
	}
	return &config, nil
}

// LoadMigrateConfig loads configuration for the migrate command
func LoadMigrateConfig(configFile string, envPath string) (*MigrateConfig, error) {
	v := configureViper("migrate", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("migrations_path", "db/migrations")

	var config MigrateConfig
	if err := readAndUnmarshal(v, &config); err != nil {
		return nil, err
	}
	if config.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	return &config, nil
}

func readAndUnmarshal(v *viper.Viper, out any) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "CHATWOOT_WEBHOOKS")
	v.SetDefault("nats.subject_prefix", "chatwoot.webhooks")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 5)
}

func setTemporalDefaults(v *viper.Viper) {
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.webhook_high_task_queue", "webhooks-high")
	v.SetDefault("temporal.webhook_task_queue", "webhooks")
	v.SetDefault("temporal.bulk_task_queue", "bulk-jobs")
	v.SetDefault("temporal.max_concurrent_activity_execution_size", 50)
	v.SetDefault("temporal.worker_activities_per_second", 50)
	v.SetDefault("temporal.max_concurrent_activity_task_pollers", 10)
}

func setRedisDefaults(v *viper.Viper) {
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.health_check_interval", "30s")
}

func setResilienceDefaults(v *viper.Viper) {
	v.SetDefault("resilience.requests_per_minute", 60)
	v.SetDefault("resilience.consent_requests_per_minute", 30)
	v.SetDefault("resilience.breaker_threshold", 5)
	v.SetDefault("resilience.consent_breaker_threshold", 3)
	v.SetDefault("resilience.breaker_timeout", "300s")
	v.SetDefault("resilience.retry_attempts", 3)
	v.SetDefault("resilience.retry_base_delay", "1s")
	v.SetDefault("resilience.retry_max_delay", "30s")
	v.SetDefault("resilience.lead_cache_ttl", "300s")
	v.SetDefault("resilience.stages_cache_ttl", "86400s")
	v.SetDefault("resilience.pipelines_cache_ttl", "3600s")
}

func setConsentDefaults(v *viper.Viper) {
	v.SetDefault("consent.default_validity_days", 365)
	v.SetDefault("consent.require_for_sync", false)
}

func setExportDefaults(v *viper.Viper) {
	v.SetDefault("export.link_ttl", "24h")
	v.SetDefault("export.prefix", "exports")
	v.SetDefault("export.region", "us-east-1")
}

func setUpstreamDefaults(v *viper.Viper, name string) {
	v.SetDefault(name+".timeout", "10s")
	v.SetDefault(name+".max_redirects", 5)
	v.SetDefault(name+".client_version", "crm-bridge/1.0")
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("CRM_BRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"migrations_path",
		// Database
		"database.host",
		"database.port",
		"database.read_host",
		"database.read_port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.subject_prefix",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Temporal
		"temporal.host_port",
		"temporal.namespace",
		"temporal.webhook_high_task_queue",
		"temporal.webhook_task_queue",
		"temporal.bulk_task_queue",
		"temporal.max_concurrent_activity_execution_size",
		"temporal.worker_activities_per_second",
		"temporal.max_concurrent_activity_task_pollers",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		"redis.health_check_interval",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.cors_origins",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Worker pool
		"worker.pool_size",
		"worker.queue_size",
		// Webhook
		"webhook.secret",
		"webhook.tolerance",
		"webhook.skip_verification",
		// Resilience
		"resilience.requests_per_minute",
		"resilience.consent_requests_per_minute",
		"resilience.breaker_threshold",
		"resilience.consent_breaker_threshold",
		"resilience.breaker_timeout",
		"resilience.retry_attempts",
		"resilience.retry_base_delay",
		"resilience.retry_max_delay",
		"resilience.lead_cache_ttl",
		"resilience.stages_cache_ttl",
		"resilience.pipelines_cache_ttl",
		// Krayin
		"krayin.pipeline_id",
		"krayin.stage_id",
		"krayin.lead_source_id",
		"krayin.lead_type_id",
		"krayin.user_id",
		// Chatwoot / insights
		"chatwoot.account_id",
		"insights.account_id",
		"insights.cache_ttl",
		"insights.stale_ttl",
		// Consent
		"consent.default_validity_days",
		"consent.require_for_sync",
		// Export
		"export.secret",
		"export.link_ttl",
		"export.bucket",
		"export.prefix",
		"export.region",
		"export.endpoint_url",
		"export.access_key_id",
		"export.secret_access_key",
		"export.public_base_url",
		// Scheduler
		"scheduler.webhook_max_attempts",
		"scheduler.bulk_max_attempts",
		"scheduler.schedule",
		"scheduler.webhook_timeout",
		"scheduler.bulk_timeout",
		// Audit
		"audit.retention_days",
	}
	for _, upstream := range []string{"krayin", "chatwoot", "insights"} {
		keys = append(keys,
			upstream+".base_url",
			upstream+".api_token",
			upstream+".timeout",
			upstream+".max_redirects",
			upstream+".insecure_skip_verify",
			upstream+".client_version",
		)
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ReadDSN returns the read-replica database connection string.
// If ReadPort is not configured, it falls back to Port.
func (c *DatabaseConfig) ReadDSN() string {
	port := c.ReadPort
	if port == 0 {
		port = c.Port
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.ReadHost, port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the database connection string in URL form, as expected by migrate
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// ValidityFor returns the consent validity window for a consent type
func (c ConsentConfig) ValidityFor(consentType string) time.Duration {
	days := c.DefaultValidityDays
	if d, ok := c.ValidityDays[consentType]; ok && d > 0 {
		days = d
	}
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}
