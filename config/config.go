package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	LogLevel    string

	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Upload    UploadConfig
	Redis     RedisConfig
	NATS      NATSConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Host               string
	Port               string
	GinMode            string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	LoginRatePerMinute int
}

type UploadConfig struct {
	Backend     string // local or s3
	Dir         string
	MaxFileSize int64
	S3Bucket    string
	S3Region    string
	S3Prefix    string
}

type RedisConfig struct {
	URL            string
	ReportCacheTTL time.Duration
}

type NATSConfig struct {
	URL string
}

type SchedulerConfig struct {
	RentReminderEnabled bool
	RentReminderCron    string
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

const devJWTSecret = "dev-secret-change-me"

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "pg_manager")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "pg_manager.db")

	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)

	v.SetDefault("UPLOAD_BACKEND", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("REPORT_CACHE_TTL", "5m")

	v.SetDefault("RENT_REMINDER_ENABLED", true)
	v.SetDefault("RENT_REMINDER_CRON", "0 9 1-5 * *")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Server: ServerConfig{
			Host:               v.GetString("HOST"),
			Port:               v.GetString("PORT"),
			GinMode:            v.GetString("GIN_MODE"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			Host:       v.GetString("DB_HOST"),
			Port:       v.GetString("DB_PORT"),
			User:       v.GetString("DB_USER"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_NAME"),
			SSLMode:    v.GetString("DB_SSLMODE"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		Auth: AuthConfig{
			JWTSecret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:     v.GetDuration("ACCESS_TOKEN_TTL"),
			RefreshTokenTTL:    v.GetDuration("REFRESH_TOKEN_TTL"),
			LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		},
		Upload: UploadConfig{
			Backend:     strings.ToLower(v.GetString("UPLOAD_BACKEND")),
			Dir:         v.GetString("UPLOAD_DIR"),
			MaxFileSize: v.GetInt64("MAX_FILE_SIZE"),
			S3Bucket:    v.GetString("S3_BUCKET"),
			S3Region:    v.GetString("S3_REGION"),
			S3Prefix:    v.GetString("S3_PREFIX"),
		},
		Redis: RedisConfig{
			URL:            v.GetString("REDIS_URL"),
			ReportCacheTTL: v.GetDuration("REPORT_CACHE_TTL"),
		},
		NATS: NATSConfig{
			URL: v.GetString("NATS_URL"),
		},
		Scheduler: SchedulerConfig{
			RentReminderEnabled: v.GetBool("RENT_REMINDER_ENABLED"),
			RentReminderCron:    v.GetString("RENT_REMINDER_CRON"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = devJWTSecret
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Upload.Backend {
	case "local":
	case "s3":
		if c.Upload.S3Bucket == "" {
			return errors.New("S3_BUCKET is required when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported UPLOAD_BACKEND %q", c.Upload.Backend)
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("MAX_FILE_SIZE must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
