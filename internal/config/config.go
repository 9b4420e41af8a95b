package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"
	StorageMinio = "minio"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	// MySQL connections need parseTime=true.
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage
	StorageDriver    string // "local", "s3" or "minio"
	StorageLocalPath string
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string // Optional for s3, host:port for minio
	S3UseSSL         bool

	// Uploads
	UploadMaxBytes int64

	// HTTP
	CORSAllowedOrigins []string

	// Analysis
	AnalysisRateLimit  int
	AnalysisRateWindow time.Duration
	HistoryMaxLimit    int
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "SheetLens"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/sheetlens.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageDriver:    strings.ToLower(envString("STORAGE_DRIVER", StorageLocal)),
		StorageLocalPath: envString("STORAGE_LOCAL_PATH", "./data/uploads"),
		S3Endpoint:       envString("S3_ENDPOINT", ""),
		S3UseSSL:         envBool("S3_USE_SSL", true),

		// Uploads
		UploadMaxBytes: int64(envInt("UPLOAD_MAX_BYTES", 10<<20)), // 10MB

		// HTTP
		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", nil),

		// Analysis
		AnalysisRateLimit:  envInt("ANALYSIS_RATE_LIMIT", 30),
		AnalysisRateWindow: envDuration("ANALYSIS_RATE_WINDOW", time.Minute),
		HistoryMaxLimit:    envInt("HISTORY_MAX_LIMIT", 100),
	}

	// Object storage credentials are only needed when selected
	if cfg.StorageDriver == StorageS3 || cfg.StorageDriver == StorageMinio {
		cfg.S3Region = envString("S3_REGION", "us-east-1")
		cfg.S3Bucket = envRequired("S3_BUCKET")
		cfg.S3AccessKey = envRequired("S3_ACCESS_KEY")
		cfg.S3SecretKey = envRequired("S3_SECRET_KEY")
		if cfg.StorageDriver == StorageMinio {
			cfg.S3Endpoint = envRequired("S3_ENDPOINT")
		}
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping blanks.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		Port:    c.Port,

		DBDriver: c.DBDriver,

		StorageDriver: c.StorageDriver,
		S3Region:      c.S3Region,
		S3Bucket:      c.S3Bucket,
		S3Endpoint:    c.S3Endpoint,

		UploadMaxBytes:     c.UploadMaxBytes,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		AnalysisRateLimit:  c.AnalysisRateLimit,
		AnalysisRateWindow: c.AnalysisRateWindow,
		HistoryMaxLimit:    c.HistoryMaxLimit,
	}
}
