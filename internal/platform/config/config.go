package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

type Config struct {
	AppPort string
	AppEnv  string
	BaseURL string

	SessionSecret     []byte
	SessionCookieName string
	SessionTTL        time.Duration

	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	SignupSecret       string
	ResetTokenTTL      time.Duration
	TokenSweepInterval time.Duration
	LockTTL            time.Duration
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current process environment without touching .env files.
func FromEnv() *Config {
	cfg := &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		BaseURL: strings.TrimRight(getEnv("BASE_URL", "http://localhost:3000"), "/"),

		SessionSecret:     []byte(getEnv("SESSION_SECRET", "dev_secret_key")),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "coding-documenty.sid"),
		SessionTTL:        getEnvAsDuration("SESSION_TTL_HOURS", 14*24, time.Hour),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "coding_documenty"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "coding_documenty"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@localhost"),

		SignupSecret:       getEnv("SIGNUP_SECRET", ""),
		ResetTokenTTL:      getEnvAsDuration("RESET_TOKEN_TTL_MINUTES", 60, time.Minute),
		TokenSweepInterval: getEnvAsDuration("TOKEN_SWEEP_INTERVAL_SECONDS", 600, time.Second),
		LockTTL:            getEnvAsDuration("LOCK_TTL_SECONDS", 30, time.Second),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration reads an integer count of unit, e.g. SESSION_TTL_HOURS=24.
func getEnvAsDuration(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * unit
}
