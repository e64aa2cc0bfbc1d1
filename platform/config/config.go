// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetEnv() string
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for periodic jobs and the task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSyncCron() string
	GetAutoReplyCron() string
	GetLeadGenerationCron() string
	GetTenantJobTimeout() time.Duration
	GetSweepConcurrency() int
	GetMetricsAddr() string
}

// EngagementConfig provides settings for the reply/lead pipeline.
type EngagementConfig interface {
	GetAutoReplyBatchSize() int
	GetExternalCallTimeout() time.Duration
}

// ReplyConfig provides settings for the AI reply generator.
type ReplyConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetSupportEmail() string
}

// ConnectorConfig provides settings for social platform clients.
type ConnectorConfig interface {
	GetGraphAPIBaseURL() string
	GetExternalCallTimeout() time.Duration
}

// WebhookConfig provides settings for inbound platform webhooks.
type WebhookConfig interface {
	GetWebhookVerifyToken() string
}

// SMTPConfig provides settings for outbound alert email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromAddress() string
	GetSMTPFromName() string
	IsSMTPEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	AccessTokenTTL      time.Duration
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	SyncCron            string
	AutoReplyCron       string
	LeadGenerationCron  string
	TenantJobTimeout    time.Duration
	SweepConcurrency    int
	MetricsAddr         string
	AutoReplyBatchSize  int
	ExternalCallTimeout time.Duration
	GeminiAPIKey        string
	GeminiModel         string
	SupportEmail        string
	GraphAPIBaseURL     string
	WebhookVerifyToken  string
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	SMTPFromAddress     string
	SMTPFromName        string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool          { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string          { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int           { return c.AsynqConcurrency }
func (c *Config) GetSyncCron() string                { return c.SyncCron }
func (c *Config) GetAutoReplyCron() string           { return c.AutoReplyCron }
func (c *Config) GetLeadGenerationCron() string      { return c.LeadGenerationCron }
func (c *Config) GetTenantJobTimeout() time.Duration { return c.TenantJobTimeout }
func (c *Config) GetSweepConcurrency() int           { return c.SweepConcurrency }
func (c *Config) GetMetricsAddr() string             { return c.MetricsAddr }

// EngagementConfig implementation
func (c *Config) GetAutoReplyBatchSize() int             { return c.AutoReplyBatchSize }
func (c *Config) GetExternalCallTimeout() time.Duration { return c.ExternalCallTimeout }

// ReplyConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) GetSupportEmail() string { return c.SupportEmail }

// ConnectorConfig implementation
func (c *Config) GetGraphAPIBaseURL() string { return c.GraphAPIBaseURL }

// WebhookConfig implementation
func (c *Config) GetWebhookVerifyToken() string { return c.WebhookVerifyToken }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:      mustDuration(getEnv("JWT_ACCESS_TTL", "24h")),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "engagement"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SyncCron:            getEnv("SYNC_CRON", "*/5 * * * *"),
		AutoReplyCron:       getEnv("AUTO_REPLY_CRON", "* * * * *"),
		LeadGenerationCron:  getEnv("LEAD_GENERATION_CRON", "0 9 * * *"),
		TenantJobTimeout:    mustDuration(getEnv("TENANT_JOB_TIMEOUT", "45s")),
		SweepConcurrency:    mustInt(getEnv("SWEEP_CONCURRENCY", "4")),
		MetricsAddr:         getEnv("METRICS_ADDR", ":9091"),
		AutoReplyBatchSize:  mustInt(getEnv("AUTO_REPLY_BATCH_SIZE", "10")),
		ExternalCallTimeout: mustDuration(getEnv("EXTERNAL_CALL_TIMEOUT", "15s")),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		SupportEmail:        getEnv("SUPPORT_EMAIL", "support@example.com"),
		GraphAPIBaseURL:     getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v18.0"),
		WebhookVerifyToken:  getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPFromAddress:     getEnv("SMTP_FROM_ADDRESS", ""),
		SMTPFromName:        getEnv("SMTP_FROM_NAME", "Engagement"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TTL must be a positive duration")
	}
	if cfg.TenantJobTimeout <= 0 {
		return nil, fmt.Errorf("TENANT_JOB_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
