package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	S3          S3Config
	SMTP        SMTPConfig
	Marketplace MarketplaceConfig
	RateLimit   RateLimitConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	Environment     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

// SMTPConfig is optional; an empty Host puts the mailer in log-only mode.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type MarketplaceConfig struct {
	ServiceCity       string
	DraftTTL          time.Duration
	ReviewCacheTTL    time.Duration
	StalePendingAfter time.Duration
	ReminderSchedule  string
}

type RateLimitConfig struct {
	SubmitPerMinute uint
	LoginPerMinute  uint
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "debug"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			LogLevel:        getEnv("LOG_LEVEL", ""),
			LogFormat:       getEnv("LOG_FORMAT", "console"),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "grocerly"),
			Password: getEnv("DB_PASSWORD", "grocerly"),
			DBName:   getEnv("DB_NAME", "grocerly"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxIdleConns:    parseInt(getEnv("DB_MAX_IDLE_CONNS", "10"), 10),
			MaxOpenConns:    parseInt(getEnv("DB_MAX_OPEN_CONNS", "50"), 50),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  getDuration("JWT_ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getDuration("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "eu-west-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "grocerly-documents"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@grocerly.app"),
		},
		Marketplace: MarketplaceConfig{
			ServiceCity:       getEnv("SERVICE_CITY", "Kampala"),
			DraftTTL:          getDuration("DRAFT_TTL", 72*time.Hour),
			ReviewCacheTTL:    getDuration("REVIEW_CACHE_TTL", 5*time.Minute),
			StalePendingAfter: getDuration("STALE_PENDING_AFTER", 48*time.Hour),
			ReminderSchedule:  getEnv("REMINDER_SCHEDULE", "0 9 * * *"),
		},
		RateLimit: RateLimitConfig{
			SubmitPerMinute: uint(parseInt(getEnv("RATE_LIMIT_SUBMIT_PER_MINUTE", "5"), 5)),
			LoginPerMinute:  uint(parseInt(getEnv("RATE_LIMIT_LOGIN_PER_MINUTE", "10"), 10)),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		problems = append(problems, "JWT_SECRET must be set in production")
	}
	if strings.TrimSpace(c.Marketplace.ServiceCity) == "" {
		problems = append(problems, "SERVICE_CITY must not be empty")
	}
	if _, err := cron.ParseStandard(c.Marketplace.ReminderSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("REMINDER_SCHEDULE %q: %v", c.Marketplace.ReminderSchedule, err))
	}
	if c.RateLimit.SubmitPerMinute == 0 || c.RateLimit.LoginPerMinute == 0 {
		problems = append(problems, "rate limits must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	duration, err := time.ParseDuration(raw)
	if err != nil || duration <= 0 {
		log.Printf("Invalid duration %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
