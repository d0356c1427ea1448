package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("USER_CACHE_TTL_SEC", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "user_events", cfg.RabbitMQ.Queue)
	assert.Equal(t, time.Hour, cfg.Redis.CacheTTL)
	assert.True(t, cfg.RateLimit.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("USER_CACHE_TTL_SEC", "90")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("RATE_LIMIT_REFILL_RATE", "2.5")

	cfg := Load()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, 90*time.Second, cfg.Redis.CacheTTL)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RefillRate)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("RATE_LIMIT_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 100, cfg.DB.MaxOpenConns)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		AppPort:   "8080",
		DB:        DBConfig{Driver: "sqlite"},
		RateLimit: RateLimitConfig{Enabled: false},
	}
	assert.Error(t, cfg.Validate())

	cfg.DB.Driver = "mysql"
	assert.NoError(t, cfg.Validate())

	cfg.AppPort = ""
	assert.Error(t, cfg.Validate())

	cfg.AppPort = "8080"
	cfg.RateLimit = RateLimitConfig{Enabled: true, Capacity: 0, RefillRate: 1}
	assert.Error(t, cfg.Validate())
}

func TestDBConfig_DSN(t *testing.T) {
	pg := DBConfig{Driver: "postgres", Host: "db", Port: "5432", User: "app", Password: "secret", Name: "users", SSLMode: "disable"}
	assert.Equal(t, "pgx", pg.DriverName())
	assert.Equal(t, "host=db port=5432 user=app password=secret dbname=users sslmode=disable", pg.DSN())

	my := DBConfig{Driver: "mysql", Host: "db", Port: "3306", User: "app", Password: "secret", Name: "users"}
	assert.Equal(t, "mysql", my.DriverName())
	dsn := my.DSN()
	assert.Contains(t, dsn, "app:secret@tcp(db:3306)/users")
	assert.Contains(t, dsn, "parseTime=true")
}
