package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort     string
	StoreType      string // "sql" or "memory"
	DatabaseType   string // "sqlite", "postgres" or "mysql"
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	AuthJWTSecret string
	AuthJWTIssuer string
	AdminUserIDs  []string

	LeaderboardFlushInterval time.Duration
	Timezone                 string
	LogMode                  string
	RateLimitPerMinute       int
}

// Load reads configuration from a .env file (when present) and environment
// variables, falling back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("PORT", "8080"),
		StoreType:      getEnv("STORE_TYPE", "sql"),
		DatabaseType:   getEnv("DATABASE_TYPE", "sqlite"),
		DatabasePath:   getEnv("DB_PATH", "./quizquest.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthJWTIssuer: getEnv("AUTH_JWT_ISSUER", ""),
		AdminUserIDs:  getList("ADMIN_USER_IDS"),

		LeaderboardFlushInterval: getDuration("LEADERBOARD_FLUSH_INTERVAL", 10*time.Second),
		Timezone:                 getEnv("TIMEZONE", "UTC"),
		LogMode:                  getEnv("LOG_MODE", "development"),
		RateLimitPerMinute:       getInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

// Location resolves the configured timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
