package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port           int           `mapstructure:"PORT"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTExpires     time.Duration `mapstructure:"JWT_EXPIRES"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	EncryptionKey  string        `mapstructure:"ENCRYPTION_KEY"`
	CORSOriginsRaw string        `mapstructure:"CORS_ORIGINS"`
	CORSOrigins    []string      `mapstructure:"-"`

	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminName     string `mapstructure:"ADMIN_NAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	RazorpayKeyID         string `mapstructure:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret     string `mapstructure:"RAZORPAY_KEY_SECRET"`
	RazorpayWebhookSecret string `mapstructure:"RAZORPAY_WEBHOOK_SECRET"`
	RazorpayBaseURL       string `mapstructure:"RAZORPAY_BASE_URL"`
	Currency              string `mapstructure:"CURRENCY"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AMQPURL        string `mapstructure:"AMQP_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	SubscriptionSweepSchedule string        `mapstructure:"SUBSCRIPTION_SWEEP_SCHEDULE"`
	RequireEmailVerification  bool          `mapstructure:"REQUIRE_EMAIL_VERIFICATION"`
	OTPTTL                    time.Duration `mapstructure:"OTP_TTL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]interface{}{
	"PORT":                        4001,
	"JWT_SECRET":                  "",
	"JWT_EXPIRES":                 "24h",
	"DATABASE_URL":                "",
	"ENCRYPTION_KEY":              "",
	"CORS_ORIGINS":                "http://localhost:3000,http://localhost:5173",
	"ADMIN_EMAIL":                 "",
	"ADMIN_NAME":                  "Admin",
	"ADMIN_PASSWORD":              "",
	"RAZORPAY_KEY_ID":             "",
	"RAZORPAY_KEY_SECRET":         "",
	"RAZORPAY_WEBHOOK_SECRET":     "",
	"RAZORPAY_BASE_URL":           "https://api.razorpay.com/v1",
	"CURRENCY":                    "INR",
	"SMTP_HOST":                   "",
	"SMTP_PORT":                   587,
	"SMTP_USERNAME":               "",
	"SMTP_PASSWORD":               "",
	"SMTP_FROM":                   "",
	"REDIS_URL":                   "",
	"AMQP_URL":                    "",
	"EVENTS_EXCHANGE":             "tailorone.events",
	"SUBSCRIPTION_SWEEP_SCHEDULE": "",
	"REQUIRE_EMAIL_VERIFICATION":  false,
	"OTP_TTL":                     "10m",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "text",
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
		// Bind explicitly so unset keys still appear in Unmarshal.
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required (must be exactly 32 bytes)")
	}
	if len(cfg.EncryptionKey) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes, got %d", len(cfg.EncryptionKey))
	}
	if cfg.JWTExpires <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES must be positive")
	}

	for _, o := range strings.Split(cfg.CORSOriginsRaw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	return &cfg, nil
}

// PaymentsLive reports whether real gateway credentials are configured.
func (c *Config) PaymentsLive() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}
