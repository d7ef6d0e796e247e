package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	DBDriver    string
	MySQLDSN    string
	SQLitePath  string
	ResetDB     bool
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string

	LogLevel       string
	LogDevelopment bool

	// PlaceholderEmailDomain is appended to auto-provisioned shop owner emails.
	PlaceholderEmailDomain string
	ResetTokenTTL          time.Duration
	ExposeResetTokens      bool
}

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		DBDriver:               strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		MySQLDSN:               getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/pricewatch?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLitePath:             getEnv("SQLITE_PATH", "pricewatch.db"),
		ResetDB:                getEnvBool("RESET_DB", false),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		RedisPass:              os.Getenv("REDIS_PASSWORD"),
		JWTSecret:              getEnv("JWT_SECRET", "change-me"),
		SwaggerHost:            os.Getenv("SWAGGER_HOST"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogDevelopment:         getEnvBool("LOG_DEVELOPMENT", false),
		PlaceholderEmailDomain: getEnv("PLACEHOLDER_EMAIL_DOMAIN", "shops.pricewatch.local"),
		ResetTokenTTL:          getEnvDuration("RESET_TOKEN_TTL", 10*time.Minute),
		ExposeResetTokens:      getEnvBool("EXPOSE_RESET_TOKENS", false),
	}
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// A missing file is not an error; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
