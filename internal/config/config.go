// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development, and a local
// .env file is honored when present.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Upload storage backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of this API.
	BaseURL string

	// AllowedOrigins lists the dashboard and customer-site origins allowed
	// to call the API cross-origin. BaseURL is always included.
	AllowedOrigins []string

	// MigrationsPath is the directory holding the SQL migration files.
	MigrationsPath string

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Mail     MailConfig
	AI       AIConfig
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// orchestrators can manage each independently. If DATABASE_URL is set, it
// takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	Host     string
	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built with the driver's
// Config.FormatDSN() so special characters in passwords survive.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string
}

// AuthConfig holds authentication and password-reset settings.
type AuthConfig struct {
	// SecretKey signs reset tickets. Must be 32+ characters in production.
	SecretKey string

	// SessionTTL is how long admin sessions last before expiring.
	SessionTTL time.Duration

	// OTPTTL is the validity window of an emailed reset code.
	OTPTTL time.Duration

	// ResetTicketTTL is how long a verified reset may be finalized.
	ResetTicketTTL time.Duration

	// Bootstrap admin, created on startup when the users table is empty.
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// UploadConfig holds media upload settings.
type UploadConfig struct {
	// MaxSize is the maximum upload file size in bytes.
	MaxSize int64

	// Backend selects where media objects live: "local" or "s3".
	Backend string

	// MediaPath is the root directory for the local backend.
	MediaPath string

	// MediaURL is the public URL prefix the local backend serves from.
	MediaURL string

	S3 S3Config
}

// S3Config holds settings for the S3-compatible media backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Custom endpoint for MinIO and friends; empty for AWS.
	AccessKeyID     string
	SecretAccessKey string
	PublicURL       string // Optional CDN or bucket URL used to build object links.
}

// MailConfig holds outbound SMTP settings.
type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string

	// Encryption is "starttls", "ssl", or "none".
	Encryption string
}

// AIConfig holds Azure OpenAI settings for the chat pass-through.
type AIConfig struct {
	Endpoint          string
	APIKey            string
	Deployment        string
	APIVersion        string
	RequestsPerMinute int
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or inconsistent.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	cfg := &Config{
		Env:            getEnv("ENV", "development"),
		Port:           getEnvInt("PORT", 8080),
		BaseURL:        baseURL,
		AllowedOrigins: append([]string{baseURL}, getEnvList("ALLOWED_ORIGINS")...),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "inkwell"),
			Password:        getEnv("DB_PASSWORD", "inkwell"),
			Name:            getEnv("DB_NAME", "inkwell"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},

		Auth: AuthConfig{
			SecretKey:      getEnv("SECRET_KEY", ""),
			SessionTTL:     getEnvDuration("SESSION_TTL", 72*time.Hour),
			OTPTTL:         getEnvDuration("OTP_TTL", 5*time.Minute),
			ResetTicketTTL: getEnvDuration("RESET_TICKET_TTL", 10*time.Minute),
			AdminUsername:  getEnv("ADMIN_USERNAME", ""),
			AdminEmail:     getEnv("ADMIN_EMAIL", ""),
			AdminPassword:  getEnv("ADMIN_PASSWORD", ""),
		},

		Upload: UploadConfig{
			MaxSize:   getEnvInt64("MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB, videos included.
			Backend:   strings.ToLower(getEnv("MEDIA_BACKEND", BackendLocal)),
			MediaPath: getEnv("MEDIA_PATH", "./media"),
			MediaURL:  getEnv("MEDIA_URL", strings.TrimRight(baseURL, "/")+"/media"),
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				PublicURL:       getEnv("S3_PUBLIC_URL", ""),
			},
		},

		Mail: MailConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@localhost"),
			FromName:    getEnv("SMTP_FROM_NAME", "Inkwell"),
			Encryption:  strings.ToLower(getEnv("SMTP_ENCRYPTION", "starttls")),
		},

		AI: AIConfig{
			Endpoint:          getEnv("OPENAI_API_ENDPOINT", ""),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			Deployment:        getEnv("OPENAI_DEPLOYMENT", "gpt-35-turbo"),
			APIVersion:        getEnv("OPENAI_API_VERSION", "2024-02-01"),
			RequestsPerMinute: getEnvInt("OPENAI_REQUESTS_PER_MINUTE", 30),
		},
	}

	if cfg.IsProduction() {
		if cfg.Auth.SecretKey == "" {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	if cfg.Auth.OTPTTL <= 0 {
		return nil, fmt.Errorf("OTP_TTL must be positive")
	}

	switch cfg.Upload.Backend {
	case BackendLocal:
	case BackendS3:
		if cfg.Upload.S3.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q (want %q or %q)", cfg.Upload.Backend, BackendLocal, BackendS3)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" and common variants.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvInt64 reads an int64 env var or returns the default.
func getEnvInt64(key string, defaultVal int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping empty items.
func getEnvList(key string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
