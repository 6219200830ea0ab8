package bootstrap

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "pw:", cfg.KeyPrefix)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24, cfg.JWTExpiryHours)
	assert.Equal(t, 100, cfg.RateLimitMax)
	assert.Equal(t, time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.SpinMaxAttempts)
	assert.Equal(t, "@every 1m", cfg.ResyncSchedule)
	assert.False(t, cfg.SeedDemo)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SPIN_RATE_WINDOW", "250ms")
	t.Setenv("SEED_DEMO", "true")
	t.Setenv("LOG_LEVEL", "chatty")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.SpinRateWindow)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "")
		t.Setenv("JWT_SECRET", "secret")
		os.Unsetenv("REDIS_ADDR")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("bad driver", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("DB_DRIVER", "postgres")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
	t.Run("bad attempts", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SPIN_MAX_ATTEMPTS", "0")
		_, err := LoadConfig()
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(&Config{AppEnv: "production", LogLevel: "debug"})
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.Equal(t, logrus.DebugLevel, log.Level)

	log = NewLogger(&Config{AppEnv: "development", LogLevel: "warn"})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	assert.Equal(t, logrus.WarnLevel, log.Level)
}
