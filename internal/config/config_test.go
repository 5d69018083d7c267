package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "debug", cfg.GinMode)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 12*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins())
	assert.True(t, cfg.RunMigration)
}

func TestLoadWithEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "host=db user=app dbname=app")
	t.Setenv("SESSION_MAX_AGE", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.SessionMaxAge)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
}

func TestValidate(t *testing.T) {
	base := Config{
		GinMode:       "debug",
		DBDriver:      "sqlite",
		DBDSN:         "file.db",
		SessionMaxAge: time.Hour,

		CORSAllowedOrigins: "http://localhost:3000",
	}

	t.Run("debug mode allows empty secrets", func(t *testing.T) {
		cfg := base
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base
		cfg.DBDriver = "mysql"
		assert.ErrorContains(t, cfg.Validate(), "DB_DRIVER")
	})

	t.Run("empty origins", func(t *testing.T) {
		cfg := base
		cfg.CORSAllowedOrigins = " , "
		assert.ErrorContains(t, cfg.Validate(), "CORS_ALLOWED_ORIGINS")
	})

	t.Run("release mode requires session secret", func(t *testing.T) {
		cfg := base
		cfg.GinMode = "release"
		assert.ErrorContains(t, cfg.Validate(), "SESSION_SECRET")
	})

	t.Run("release mode requires redis session store", func(t *testing.T) {
		cfg := base
		cfg.GinMode = "release"
		cfg.SessionSecret = "secret"
		assert.ErrorContains(t, cfg.Validate(), "SESSION_REDIS_URL")
	})
}
