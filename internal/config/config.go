package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv             string
	LogLevel           string
	Port               int
	StoreDriver        string // postgres, mongo or memory
	DatabaseURL        string
	MongoURI           string
	MongoDB            string
	RedisURL           string // optional, OTP codes stay in memory when empty
	FrontendURL        string // used for note deep links in QR codes
	CORSAllowedOrigin  string
	JWTSecret          string        // Secret key for JWT token signing
	JWTTTL             time.Duration // JWT token lifetime
	BcryptCost         int
	OTPTTL             time.Duration
	OTPMaxAttempts     int
	OTPSweepInterval   time.Duration
	RateLimitRPS       float64 // Rate limit for general API endpoints (requests per second)
	RateLimitBurst     int
	RateLimitAuthRPS   float64 // Rate limit for auth endpoints (stricter)
	RateLimitAuthBurst int
	MaxBodyBytes       int64
	ShutdownTimeout    time.Duration
	HostMetricsEvery   time.Duration // host CPU/memory gauge refresh
	SMTPHost           string        // password reset codes are only logged when empty
	SMTPPort           int
	SMTPUser           string
	SMTPPass           string
	SMTPFrom           string
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	return &Config{
		AppEnv:             getEnv("APP_ENV", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvInt("PORT", 4000),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		MongoURI:           getEnv("MONGO_URI", ""),
		MongoDB:            getEnv("MONGO_DB", "notely"),
		RedisURL:           getEnv("REDIS_URL", ""),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:5173"), "/"),
		CORSAllowedOrigin:  getEnv("CORS_ALLOWED_ORIGIN", "*"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTTTL:             time.Duration(getEnvInt("JWT_TTL_HOURS", 24*7)) * time.Hour, // 7 days
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
		OTPTTL:             getEnvDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:     getEnvInt("OTP_MAX_ATTEMPTS", 3),
		OTPSweepInterval:   getEnvDuration("OTP_SWEEP_INTERVAL", 5*time.Minute),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitAuthRPS:   getEnvFloat("RATE_LIMIT_AUTH_RPS", 2),
		RateLimitAuthBurst: getEnvInt("RATE_LIMIT_AUTH_BURST", 5),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HostMetricsEvery:   getEnvDuration("HOST_METRICS_INTERVAL", 15*time.Second),
		SMTPHost:           getEnv("EMAIL_HOST", ""),
		SMTPPort:           getEnvInt("EMAIL_PORT", 587),
		SMTPUser:           getEnv("EMAIL_USER", ""),
		SMTPPass:           getEnv("EMAIL_PASS", ""),
		SMTPFrom:           getEnv("EMAIL_FROM", ""),
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	if c.OTPMaxAttempts <= 0 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "10m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
