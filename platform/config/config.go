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

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings, shared by the scheduler
// and the inbound dedup guard.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the background job scheduler.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
	GetSnoozeExpireInterval() time.Duration
}

// SMSConfig provides settings for the outbound SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayKey() string
	GetSMSFromNumber() string
	GetSMSSendTimeout() time.Duration
	GetSMSRatePerSecond() float64
	IsSMSEnabled() bool
}

// NurtureConfig provides settings for the nurture engine.
type NurtureConfig interface {
	GetPhoneRegion() string
	GetNurtureTimezone() string
	GetSweepBatchSize() int
	GetSweepWorkers() int
	GetSnoozeBatchSize() int
	GetNurtureSettingsPath() string
}

// AlertConfig provides settings for operator email alerts.
type AlertConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetAlertFromAddress() string
	GetAlertToAddress() string
	IsAlertingEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	SweepInterval        time.Duration
	SnoozeExpireInterval time.Duration
	SMSGatewayURL        string
	SMSGatewayKey        string
	SMSFromNumber        string
	SMSSendTimeout       time.Duration
	SMSRatePerSecond     float64
	PhoneRegion          string
	NurtureTimezone      string
	SweepBatchSize       int
	SweepWorkers         int
	SnoozeBatchSize      int
	NurtureSettingsPath  string
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	AlertFromAddress     string
	AlertToAddress       string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration        { return c.SweepInterval }
func (c *Config) GetSnoozeExpireInterval() time.Duration { return c.SnoozeExpireInterval }

// SMSConfig implementation
func (c *Config) GetSMSGatewayURL() string         { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayKey() string         { return c.SMSGatewayKey }
func (c *Config) GetSMSFromNumber() string         { return c.SMSFromNumber }
func (c *Config) GetSMSSendTimeout() time.Duration { return c.SMSSendTimeout }
func (c *Config) GetSMSRatePerSecond() float64     { return c.SMSRatePerSecond }
func (c *Config) IsSMSEnabled() bool               { return c.SMSGatewayURL != "" }

// NurtureConfig implementation
func (c *Config) GetPhoneRegion() string         { return c.PhoneRegion }
func (c *Config) GetNurtureTimezone() string     { return c.NurtureTimezone }
func (c *Config) GetSweepBatchSize() int         { return c.SweepBatchSize }
func (c *Config) GetSweepWorkers() int           { return c.SweepWorkers }
func (c *Config) GetSnoozeBatchSize() int        { return c.SnoozeBatchSize }
func (c *Config) GetNurtureSettingsPath() string { return c.NurtureSettingsPath }

// AlertConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetAlertFromAddress() string { return c.AlertFromAddress }
func (c *Config) GetAlertToAddress() string   { return c.AlertToAddress }
func (c *Config) IsAlertingEnabled() bool {
	return c.SMTPHost != "" && c.AlertToAddress != ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "nurture"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SweepInterval:        mustDuration(getEnv("NURTURE_SWEEP_INTERVAL", "5m")),
		SnoozeExpireInterval: mustDuration(getEnv("NURTURE_SNOOZE_EXPIRE_INTERVAL", "15m")),
		SMSGatewayURL:        getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayKey:        getEnv("SMS_GATEWAY_KEY", ""),
		SMSFromNumber:        getEnv("SMS_FROM_NUMBER", ""),
		SMSSendTimeout:       mustDuration(getEnv("SMS_SEND_TIMEOUT", "10s")),
		SMSRatePerSecond:     mustFloat(getEnv("SMS_RATE_PER_SECOND", "10")),
		PhoneRegion:          getEnv("PHONE_REGION", "US"),
		NurtureTimezone:      getEnv("NURTURE_TIMEZONE", "America/Chicago"),
		SweepBatchSize:       mustInt(getEnv("NURTURE_SWEEP_BATCH", "20")),
		SweepWorkers:         mustInt(getEnv("NURTURE_SWEEP_WORKERS", "5")),
		SnoozeBatchSize:      mustInt(getEnv("NURTURE_SNOOZE_BATCH", "100")),
		NurtureSettingsPath:  getEnv("NURTURE_SETTINGS_PATH", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		AlertFromAddress:     getEnv("ALERT_FROM_ADDRESS", ""),
		AlertToAddress:       getEnv("ALERT_TO_ADDRESS", ""),
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
	if cfg.SweepBatchSize < 1 {
		return nil, fmt.Errorf("NURTURE_SWEEP_BATCH must be positive")
	}
	if cfg.SnoozeBatchSize < 1 {
		return nil, fmt.Errorf("NURTURE_SNOOZE_BATCH must be positive")
	}
	if _, err := time.LoadLocation(cfg.NurtureTimezone); err != nil {
		return nil, fmt.Errorf("NURTURE_TIMEZONE is invalid: %w", err)
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
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
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
