package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	// Ingestion
	InputPath       string
	ErrorLogPath    string
	BatchSize       int
	Workers         int
	DefaultCurrency string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// Module provides the loaded configuration.
var Module = fx.Provide(Load)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "invosync"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		InputPath:       getenv("INGEST_INPUT", "data/Analytics_Test_Data.json"),
		ErrorLogPath:    strings.TrimSpace(getenv("INGEST_ERROR_LOG", "")),
		BatchSize:       getenvInt("INGEST_BATCH_SIZE", 50),
		Workers:         getenvInt("INGEST_WORKERS", 1),
		DefaultCurrency: getenv("INGEST_DEFAULT_CURRENCY", "EUR"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "invosync"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "invosync.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
	}

	return cfg
}

// ErrorLog returns the configured error log path, defaulting to a file
// next to the ingest input.
func (c Config) ErrorLog() string {
	if c.ErrorLogPath != "" {
		return c.ErrorLogPath
	}
	dir := "."
	if i := strings.LastIndexByte(c.InputPath, '/'); i >= 0 {
		dir = c.InputPath[:i]
	}
	return dir + "/ingest_errors.log"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
