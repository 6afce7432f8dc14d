package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "host=localhost dbname=planning"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2, cfg.Policy.MaxDaysPerWeek)
	assert.Equal(t, 1, cfg.Policy.MaxConsecutiveDays)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.OpenTimeout)
	assert.Equal(t, 5*time.Second, cfg.Intake.Timeout)
	assert.Equal(t, CacheBackendMemory, cfg.NameCache.Backend)
	assert.Equal(t, time.Hour, cfg.NameCache.TTL)
	assert.Equal(t, []string{"MANAGER", "ROLE_MANAGER"}, cfg.Auth.ManagerRoles)
	assert.False(t, cfg.Refresher.Enabled)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file:from-file.db"
intake:
  base_url: "http://file-intake"
`)
	t.Setenv("PLANNING_DATABASE_DSN", "file:from-env.db")
	t.Setenv("PLANNING_INTAKE_URL", "http://env-intake")
	t.Setenv("PLANNING_JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:from-env.db", cfg.Database.DSN)
	assert.Equal(t, "http://env-intake", cfg.Intake.BaseURL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(c *Config)
		expectErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Database.Driver = "mysql" },
			expectErr: "database.driver",
		},
		{
			name:      "missing dsn",
			mutate:    func(c *Config) { c.Database.DSN = "" },
			expectErr: "database.dsn",
		},
		{
			name:      "redis backend without address",
			mutate:    func(c *Config) { c.NameCache.Backend = CacheBackendRedis },
			expectErr: "name_cache.redis.addr",
		},
		{
			name:      "weekly quota above working days",
			mutate:    func(c *Config) { c.Policy.MaxDaysPerWeek = 6 },
			expectErr: "policy.max_days_per_week",
		},
		{
			name:      "negative spacing",
			mutate:    func(c *Config) { c.Policy.MaxConsecutiveDays = -1 },
			expectErr: "policy.max_consecutive_days",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Database:  DatabaseConfig{Driver: DriverSQLite, DSN: "file::memory:"},
				NameCache: NameCacheConfig{Backend: CacheBackendMemory},
				Policy:    PolicyConfig{MaxDaysPerWeek: 2, MaxConsecutiveDays: 1},
			}
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectErr)
		})
	}
}
