package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, SessionStoreCookie, cfg.SessionStore)
	assert.Equal(t, "admin@trucking.com", cfg.AdminEmail)
	assert.Equal(t, "trips", cfg.TripsPath)
	assert.Equal(t, "users", cfg.UsersPath)
	assert.Equal(t, 15.2, cfg.RevenueChange)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_FromEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("FUELROUTE_TEST_PORT=9090\n"), 0o600))
	t.Setenv("APP_ENV", "local")
	t.Cleanup(func() { os.Unsetenv("FUELROUTE_TEST_PORT") })

	Load(file)

	assert.Equal(t, "9090", os.Getenv("FUELROUTE_TEST_PORT"))
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("T_INT", "42")
	t.Setenv("T_BAD_INT", "forty")
	t.Setenv("T_BOOL", "true")
	t.Setenv("T_FLOAT", "1.5")
	t.Setenv("T_DUR", "90m")
	t.Setenv("T_BAD_DUR", "-1h")
	t.Setenv("T_LIST", " 10.0.0.0/8, ,192.168.1.1")

	assert.Equal(t, 42, GetEnvAsInt("T_INT", 1))
	assert.Equal(t, 1, GetEnvAsInt("T_BAD_INT", 1))
	assert.True(t, GetEnvAsBool("T_BOOL", false))
	assert.Equal(t, 1.5, GetEnvAsFloat("T_FLOAT", 0))
	assert.Equal(t, 90*time.Minute, GetEnvAsDuration("T_DUR", time.Hour))
	assert.Equal(t, time.Hour, GetEnvAsDuration("T_BAD_DUR", time.Hour))
	assert.Equal(t, "fallback", GetEnv("T_UNSET_VALUE", "fallback"))
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, GetEnvAsSlice("T_LIST"))
	assert.Nil(t, GetEnvAsSlice("T_UNSET_VALUE"))
}
