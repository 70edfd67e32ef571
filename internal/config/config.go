package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds application configuration read from the environment.
type Config struct {
	Port int    `validate:"gt=0"`
	Env  string `validate:"oneof=development test production"`

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string

	// Auth
	JWTSecret     string        `validate:"required"`
	JWTTTL        time.Duration `validate:"gt=0"`
	AdminEmail    string        `validate:"omitempty,email"`
	AdminPassword string
	AuthRateLimit float64 `validate:"gte=0"`

	// Logging
	LogFile  string
	LogLevel string `validate:"oneof=trace debug info warn error"`

	// Notifications
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NotifyQueue   string
	NotifyWorkers int `validate:"gt=0"`

	// Geocoding
	GeocoderURL       string `validate:"omitempty,url"`
	GeocoderUserAgent string
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	cfg := &Config{
		Port:        envInt("APP_PORT", 8080),
		Env:         envStr("APP_ENV", "development"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envStr("DB_PORT", "5432"),
		DBUser:      envStr("DB_USER", "postgres"),
		DBPassword:  envStr("DB_PASSWORD", "password"),
		DBName:      envStr("DB_NAME", "bus_backoffice"),
		DBSSLMode:   envStr("DB_SSLMODE", "disable"),
		DBTimezone:  envStr("DB_TIMEZONE", "UTC"),

		JWTSecret:     envStr("JWT_SECRET", "supersecret"),
		JWTTTL:        envDuration("JWT_TTL", 72*time.Hour),
		AdminEmail:    envStr("ADMIN_EMAIL", ""),
		AdminPassword: envStr("ADMIN_PASSWORD", ""),
		AuthRateLimit: envFloat("AUTH_RATE_LIMIT", 5),

		LogFile:  envStr("LOG_FILE", "./logs/app.log"),
		LogLevel: envStr("LOG_LEVEL", "debug"),

		RedisAddr:     envStr("REDIS_ADDR", ""),
		RedisPassword: envStr("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),
		NotifyQueue:   envStr("NOTIFY_QUEUE", "notify-queue"),
		NotifyWorkers: envInt("NOTIFY_WORKERS", 4),

		GeocoderURL:       envStr("GEOCODER_URL", ""),
		GeocoderUserAgent: envStr("GEOCODER_USER_AGENT", "bus-backoffice/1.0"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
