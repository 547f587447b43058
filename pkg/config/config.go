package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment                  string
	ServerPort                   int
	LogLevel                     string
	DatabaseURL                  string
	DBHost                       string
	DBPort                       int
	DBUser                       string
	DBPassword                   string
	DBName                       string
	DBSSLMode                    string
	RedisURL                     string
	JWTSecret                    string
	OperatorEmail                string
	OperatorPassword             string
	CORSAllowedOrigins           []string
	DueGenerationIntervalMinutes int
	DashboardPushSeconds         int
	RateLimitPerMinute           int
	CustomRooms                  []string
	TokenTTLMinutes              int
}

// Load reads configuration from environment variables. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port, err := getInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dueInterval, err := getInt("DUE_GENERATION_INTERVAL_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	pushSeconds, err := getInt("DASHBOARD_PUSH_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getInt("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getInt("TOKEN_TTL_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment:                  getEnv("ENVIRONMENT", "development"),
		ServerPort:                   port,
		LogLevel:                     getEnv("LOG_LEVEL", "info"),
		DatabaseURL:                  os.Getenv("DATABASE_URL"),
		DBHost:                       getEnv("DB_HOST", "localhost"),
		DBPort:                       dbPort,
		DBUser:                       getEnv("DB_USER", "pgledger"),
		DBPassword:                   getEnv("DB_PASSWORD", "dev"),
		DBName:                       getEnv("DB_NAME", "pgledger"),
		DBSSLMode:                    getEnv("DB_SSLMODE", "disable"),
		RedisURL:                     os.Getenv("REDIS_URL"),
		JWTSecret:                    os.Getenv("JWT_SECRET"),
		OperatorEmail:                getEnv("OPERATOR_EMAIL", "owner@pgledger.local"),
		OperatorPassword:             os.Getenv("OPERATOR_PASSWORD"),
		CORSAllowedOrigins:           parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		DueGenerationIntervalMinutes: dueInterval,
		DashboardPushSeconds:         pushSeconds,
		RateLimitPerMinute:           rateLimit,
		CustomRooms:                  parseCSVEnv("CUSTOM_ROOMS", nil),
		TokenTTLMinutes:              tokenTTL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.DueGenerationIntervalMinutes <= 0 {
		return fmt.Errorf("DUE_GENERATION_INTERVAL_MINUTES must be positive")
	}
	if c.DashboardPushSeconds <= 0 {
		return fmt.Errorf("DASHBOARD_PUSH_SECONDS must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// DSN returns DATABASE_URL or a key=value string built from the DB_* settings
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
