// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	LogFormat     string
	AdminEmail    string
	AdminPassword string
	TokenStore    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	BcryptCost    int
	SecureCookies bool
}

// Load reads an optional .env file from envFile (ignored when missing) and
// then the YOGABOOK_* environment variables. Variables already set in the
// environment take precedence over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          get("YOGABOOK_PORT", "8000"),
		DBPath:        get("YOGABOOK_DB_PATH", "yoga.db"),
		LogLevel:      get("YOGABOOK_LOG_LEVEL", "info"),
		LogFormat:     strings.ToLower(get("YOGABOOK_LOG_FORMAT", "text")),
		AdminEmail:    get("YOGABOOK_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: get("YOGABOOK_ADMIN_PASSWORD", "admin"),
		TokenStore:    strings.ToLower(get("YOGABOOK_TOKEN_STORE", TokenStoreMemory)),
		RedisAddr:     get("YOGABOOK_REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("YOGABOOK_REDIS_PASSWORD"),
	}

	var problems []string

	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		problems = append(problems, fmt.Sprintf("YOGABOOK_PORT %q is not a port number", cfg.Port))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("YOGABOOK_LOG_FORMAT %q must be text or json", cfg.LogFormat))
	}
	if cfg.TokenStore != TokenStoreMemory && cfg.TokenStore != TokenStoreRedis {
		problems = append(problems, fmt.Sprintf("YOGABOOK_TOKEN_STORE %q must be memory or redis", cfg.TokenStore))
	}

	redisDB, err := strconv.Atoi(get("YOGABOOK_REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		problems = append(problems, "YOGABOOK_REDIS_DB must be a non-negative integer")
	}
	cfg.RedisDB = redisDB

	cost, err := strconv.Atoi(get("YOGABOOK_BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil || cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("YOGABOOK_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	cfg.BcryptCost = cost

	secure, err := strconv.ParseBool(get("YOGABOOK_SECURE_COOKIES", "false"))
	if err != nil {
		problems = append(problems, "YOGABOOK_SECURE_COOKIES must be a boolean")
	}
	cfg.SecureCookies = secure

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}
