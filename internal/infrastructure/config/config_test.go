package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"COMMERCEHUB_APP_NAME":                os.Getenv("COMMERCEHUB_APP_NAME"),
		"COMMERCEHUB_APP_ENV":                 os.Getenv("COMMERCEHUB_APP_ENV"),
		"COMMERCEHUB_APP_PORT":                os.Getenv("COMMERCEHUB_APP_PORT"),
		"COMMERCEHUB_DATABASE_DRIVER":         os.Getenv("COMMERCEHUB_DATABASE_DRIVER"),
		"COMMERCEHUB_DATABASE_HOST":           os.Getenv("COMMERCEHUB_DATABASE_HOST"),
		"COMMERCEHUB_DATABASE_PORT":           os.Getenv("COMMERCEHUB_DATABASE_PORT"),
		"COMMERCEHUB_DATABASE_USER":           os.Getenv("COMMERCEHUB_DATABASE_USER"),
		"COMMERCEHUB_DATABASE_PASSWORD":       os.Getenv("COMMERCEHUB_DATABASE_PASSWORD"),
		"COMMERCEHUB_DATABASE_DBNAME":         os.Getenv("COMMERCEHUB_DATABASE_DBNAME"),
		"COMMERCEHUB_DATABASE_SSLMODE":        os.Getenv("COMMERCEHUB_DATABASE_SSLMODE"),
		"COMMERCEHUB_DATABASE_MAX_OPEN_CONNS": os.Getenv("COMMERCEHUB_DATABASE_MAX_OPEN_CONNS"),
		"COMMERCEHUB_DATABASE_MAX_IDLE_CONNS": os.Getenv("COMMERCEHUB_DATABASE_MAX_IDLE_CONNS"),
		"COMMERCEHUB_CACHE_BACKEND":           os.Getenv("COMMERCEHUB_CACHE_BACKEND"),
		"COMMERCEHUB_CACHE_TTL":               os.Getenv("COMMERCEHUB_CACHE_TTL"),
		"COMMERCEHUB_SYNC_WORKER_ENABLED":     os.Getenv("COMMERCEHUB_SYNC_WORKER_ENABLED"),
		"COMMERCEHUB_SYNC_STRATEGY":           os.Getenv("COMMERCEHUB_SYNC_STRATEGY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "commercehub-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DatabaseDriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "commercehub", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "redis", cfg.Cache.Backend)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, time.Second, cfg.SyncWorker.PollInterval)
		assert.Equal(t, 5, cfg.SyncWorker.MaxConcurrentJobs)
		assert.Equal(t, "external_wins", cfg.Sync.Strategy)
	})

	t.Run("loads values from environment variables with COMMERCEHUB prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_APP_NAME", "test-app")
		os.Setenv("COMMERCEHUB_APP_ENV", "testing")
		os.Setenv("COMMERCEHUB_APP_PORT", "9000")
		os.Setenv("COMMERCEHUB_DATABASE_HOST", "testdb.local")
		os.Setenv("COMMERCEHUB_DATABASE_PORT", "5433")
		os.Setenv("COMMERCEHUB_DATABASE_USER", "testuser")
		os.Setenv("COMMERCEHUB_DATABASE_PASSWORD", "testpass")
		os.Setenv("COMMERCEHUB_DATABASE_DBNAME", "testdb")
		os.Setenv("COMMERCEHUB_DATABASE_SSLMODE", "require")
		os.Setenv("COMMERCEHUB_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("COMMERCEHUB_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("COMMERCEHUB_CACHE_BACKEND", "memory")
		os.Setenv("COMMERCEHUB_CACHE_TTL", "90s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, "memory", cfg.Cache.Backend)
		assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("COMMERCEHUB_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_DATABASE_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unknown cache backend", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_CACHE_BACKEND", "memcached")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.backend")
	})

	t.Run("rejects unknown sync strategy", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_SYNC_STRATEGY", "newest_wins")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.strategy")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"COMMERCEHUB_APP_ENV":           os.Getenv("COMMERCEHUB_APP_ENV"),
		"COMMERCEHUB_DATABASE_DRIVER":   os.Getenv("COMMERCEHUB_DATABASE_DRIVER"),
		"COMMERCEHUB_DATABASE_PASSWORD": os.Getenv("COMMERCEHUB_DATABASE_PASSWORD"),
		"COMMERCEHUB_DATABASE_SSLMODE":  os.Getenv("COMMERCEHUB_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_APP_ENV", "production")
		os.Setenv("COMMERCEHUB_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_APP_ENV", "production")
		os.Setenv("COMMERCEHUB_DATABASE_PASSWORD", "secure-password")
		os.Setenv("COMMERCEHUB_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_APP_ENV", "production")
		os.Setenv("COMMERCEHUB_DATABASE_DRIVER", "sqlite")
		os.Setenv("COMMERCEHUB_DATABASE_PASSWORD", "secure-password")
		os.Setenv("COMMERCEHUB_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite is not supported in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		os.Setenv("COMMERCEHUB_APP_ENV", "production")
		os.Setenv("COMMERCEHUB_DATABASE_PASSWORD", "secure-password")
		os.Setenv("COMMERCEHUB_DATABASE_SSLMODE", "require")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DatabaseDriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DatabaseDriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   DatabaseDriverPostgres,
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})

	t.Run("sqlite driver returns file path", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:     DatabaseDriverSQLite,
			SQLitePath: "data/commercehub.db",
		}

		assert.Equal(t, "data/commercehub.db", cfg.DSN())
	})
}
