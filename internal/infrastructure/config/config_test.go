package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "flock-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "flock", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 7, cfg.Consolidation.StaleWarningDays)
		assert.Equal(t, 14, cfg.Consolidation.StaleCriticalDays)
		assert.Equal(t, 3, cfg.Consolidation.RecommendationLimit)
		assert.Equal(t, 5*time.Minute, cfg.Consolidation.GroupCacheTTL)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("loads values from environment variables with FLOCK prefix", func(t *testing.T) {
		t.Setenv("FLOCK_APP_NAME", "test-app")
		t.Setenv("FLOCK_APP_PORT", "9000")
		t.Setenv("FLOCK_DATABASE_HOST", "testdb.local")
		t.Setenv("FLOCK_DATABASE_PORT", "5433")
		t.Setenv("FLOCK_DATABASE_PASSWORD", "testpass")
		t.Setenv("FLOCK_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("FLOCK_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("FLOCK_CONSOLIDATION_STALE_WARNING_DAYS", "5")
		t.Setenv("FLOCK_CONSOLIDATION_STALE_CRITICAL_DAYS", "10")
		t.Setenv("FLOCK_CONSOLIDATION_GROUP_CACHE_TTL", "30s")
		t.Setenv("FLOCK_REDIS_ENABLED", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 5, cfg.Consolidation.StaleWarningDays)
		assert.Equal(t, 10, cfg.Consolidation.StaleCriticalDays)
		assert.Equal(t, 30*time.Second, cfg.Consolidation.GroupCacheTTL)
		assert.True(t, cfg.Redis.Enabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("FLOCK_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("FLOCK_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		t.Setenv("FLOCK_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unordered stale thresholds", func(t *testing.T) {
		t.Setenv("FLOCK_CONSOLIDATION_STALE_WARNING_DAYS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "stale_warning_days")
	})

	t.Run("production requires password and ssl", func(t *testing.T) {
		t.Setenv("FLOCK_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")

		t.Setenv("FLOCK_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		t.Setenv("FLOCK_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.App.IsProduction())
	})

	t.Run("sqlite is rejected in production", func(t *testing.T) {
		t.Setenv("FLOCK_APP_ENV", "production")
		t.Setenv("FLOCK_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("escapes postgres credentials", func(t *testing.T) {
		d := DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "db",
			Port:     5432,
			User:     "flock",
			Password: "p@ss:word/1",
			DBName:   "flock",
			SSLMode:  "disable",
		}
		u, err := url.Parse(d.DSN())
		require.NoError(t, err)
		pass, _ := u.User.Password()
		assert.Equal(t, "p@ss:word/1", pass)
		assert.Equal(t, "db:5432", u.Host)
		assert.Equal(t, "/flock", u.Path)
		assert.Equal(t, "disable", u.Query().Get("sslmode"))
	})

	t.Run("sqlite uses file path", func(t *testing.T) {
		d := DatabaseConfig{Driver: DriverSQLite, SQLitePath: "/tmp/flock.db"}
		assert.Equal(t, "/tmp/flock.db", d.DSN())
	})
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
