package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionStoreCookie = "cookie"
	SessionStoreRedis  = "redis"

	minReleaseSecretLen = 32
)

type Config struct {
	HTTPAddr string
	GinMode  string
	LogLevel string

	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	SQLitePath     string
	DBMaxOpenConns int

	SessionStore  string
	SessionSecret string
	// SessionMaxAge is in seconds
	SessionMaxAge int
	RedisHost     string
	RedisPort     string

	CORSOrigins []string
	// AuthRateLimit is requests per minute per IP on /signup and /login;
	// zero disables the limiter.
	AuthRateLimit int
}

// Load reads the environment, after merging a .env file when one exists.
func Load() *Config {
	_ = godotenv.Load()

	driver := getEnv("DB_DRIVER", DriverMySQL)
	defaultPort := "3306"
	if driver == DriverPostgres {
		defaultPort = "5432"
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		GinMode:  getEnv("GIN_MODE", gin.DebugMode),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:       driver,
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", defaultPort),
		DBUser:         getEnv("DB_USER", "todouser"),
		DBPassword:     getEnv("DB_PASSWORD", "todopassword"),
		DBName:         getEnv("DB_NAME", "todo"),
		SQLitePath:     getEnv("SQLITE_PATH", "todo.db"),
		DBMaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 10),

		SessionStore:  getEnv("SESSION_STORE", SessionStoreCookie),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SessionMaxAge: getIntEnv("SESSION_MAX_AGE", 86400*7),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),

		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		AuthRateLimit: getIntEnv("AUTH_RATE_LIMIT", 30),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of %s, %s, %s", DriverMySQL, DriverPostgres, DriverSQLite))
	}

	switch c.SessionStore {
	case SessionStoreCookie, SessionStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be %s or %s", SessionStoreCookie, SessionStoreRedis))
	}

	switch c.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE %q is not a gin mode", c.GinMode))
	}

	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if c.IsRelease() && len(c.SessionSecret) < minReleaseSecretLen {
		errs = append(errs, fmt.Errorf("SESSION_SECRET must be at least %d bytes in release mode", minReleaseSecretLen))
	}

	if c.DBMaxOpenConns < 1 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	if c.SessionMaxAge < 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must not be negative"))
	}
	if c.AuthRateLimit < 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must not be negative"))
	}

	return errors.Join(errs...)
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == gin.ReleaseMode
}

// RedisAddr is host:port of the session redis.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func splitCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
