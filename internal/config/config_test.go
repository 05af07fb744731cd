package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "JWT_TTL_HOURS", "OTP_TTL", "OTP_MAX_ATTEMPTS", "FRONTEND_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.OTPSweepInterval)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("JWT_TTL_HOURS", "1")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("FRONTEND_URL", "https://notes.example.com/")

	cfg := Load()

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.InDelta(t, 2.5, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, "https://notes.example.com", cfg.FrontendURL)
	assert.Equal(t, ":8081", cfg.Addr())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("OTP_TTL", "ten minutes")

	cfg := Load()

	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           4000,
			StoreDriver:    DriverPostgres,
			DatabaseURL:    "postgres://localhost/notely",
			JWTSecret:      "secret",
			OTPMaxAttempts: 3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid postgres", mutate: func(c *Config) {}},
		{name: "valid mongo", mutate: func(c *Config) { c.StoreDriver = DriverMongo; c.MongoURI = "mongodb://localhost" }},
		{name: "valid memory", mutate: func(c *Config) { c.StoreDriver = DriverMemory; c.DatabaseURL = "" }},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "missing mongo uri", mutate: func(c *Config) { c.StoreDriver = DriverMongo }, wantErr: "MONGO_URI"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mysql" }, wantErr: "unknown STORE_DRIVER"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "invalid PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
