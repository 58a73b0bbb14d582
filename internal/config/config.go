package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. It is built
// once at process start and passed down; no component reads ambient
// globals.
type Config struct {
	App          AppConfig
	Store        StoreConfig
	Mail         MailConfig
	Notification NotificationConfig
	Auth         AuthConfig
	Redis        RedisConfig
	Logger       LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig holds file paths for the durable state.
type StoreConfig struct {
	TicketsFile     string
	CounterFile     string
	CredentialsFile string
}

// MailConfig holds inbound and outbound mail settings.
type MailConfig struct {
	IMAPServer          string
	Account             string
	Password            string
	SMTPServer          string
	SMTPPort            int
	PollIntervalSeconds int
	SeenCacheTTLHours   int
}

// NotificationConfig holds collaborator notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// RedisConfig holds Redis connection values. An empty Addr disables the
// processed-message cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			TicketsFile:     getEnv("TICKETS_FILE", "tickets.json"),
			CounterFile:     getEnv("TICKET_COUNTER_FILE", "ticket_counter.json"),
			CredentialsFile: getEnv("EMPLOYEE_FILE", "employee.json"),
		},
		Mail: MailConfig{
			IMAPServer:          os.Getenv("IMAP_SERVER"),
			Account:             os.Getenv("EMAIL_ACCOUNT"),
			Password:            os.Getenv("EMAIL_PASSWORD"),
			SMTPServer:          os.Getenv("SMTP_SERVER"),
			SMTPPort:            getEnvAsInt("SMTP_PORT", 587),
			PollIntervalSeconds: getEnvAsInt("MAIL_POLL_INTERVAL_SECONDS", 120),
			SeenCacheTTLHours:   getEnvAsInt("MAIL_SEEN_CACHE_TTL_HOURS", 720),
		},
		Notification: NotificationConfig{
			WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the correlation poll interval.
func (m MailConfig) PollInterval() time.Duration {
	if m.PollIntervalSeconds <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(m.PollIntervalSeconds) * time.Second
}

// SeenCacheTTL returns how long processed Message-IDs stay cached.
func (m MailConfig) SeenCacheTTL() time.Duration {
	if m.SeenCacheTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(m.SeenCacheTTLHours) * time.Hour
}

// InboundConfigured reports whether the IMAP poller can run.
func (m MailConfig) InboundConfigured() bool {
	return m.IMAPServer != "" && m.Account != "" && m.Password != ""
}

// OutboundConfigured reports whether confirmation email can be sent.
func (m MailConfig) OutboundConfigured() bool {
	return m.SMTPServer != "" && m.Account != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
