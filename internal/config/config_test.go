package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)
	require.Equal(t, "8000", cfg.Port)
	require.Equal(t, "yoga.db", cfg.DBPath)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, "admin@example.com", cfg.AdminEmail)
	require.Equal(t, "admin", cfg.AdminPassword)
	require.Equal(t, TokenStoreMemory, cfg.TokenStore)
	require.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	require.False(t, cfg.SecureCookies)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"YOGABOOK_PORT":           "9090",
		"YOGABOOK_TOKEN_STORE":    "REDIS",
		"YOGABOOK_REDIS_ADDR":     "cache:6379",
		"YOGABOOK_REDIS_DB":       "2",
		"YOGABOOK_LOG_FORMAT":     "json",
		"YOGABOOK_BCRYPT_COST":    "4",
		"YOGABOOK_SECURE_COOKIES": "true",
	}))
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, TokenStoreRedis, cfg.TokenStore)
	require.Equal(t, "cache:6379", cfg.RedisAddr)
	require.Equal(t, 2, cfg.RedisDB)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 4, cfg.BcryptCost)
	require.True(t, cfg.SecureCookies)
}

func TestFromEnvInvalid(t *testing.T) {
	_, err := FromEnv(envMap(map[string]string{
		"YOGABOOK_PORT":        "eighty",
		"YOGABOOK_TOKEN_STORE": "memcached",
		"YOGABOOK_BCRYPT_COST": "99",
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "YOGABOOK_PORT")
	require.Contains(t, err.Error(), "YOGABOOK_TOKEN_STORE")
	require.Contains(t, err.Error(), "YOGABOOK_BCRYPT_COST")
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("YOGABOOK_DB_PATH=/tmp/from-file.db\n"), 0o600))
	t.Setenv("YOGABOOK_DB_PATH", "")
	os.Unsetenv("YOGABOOK_DB_PATH")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-file.db", cfg.DBPath)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
