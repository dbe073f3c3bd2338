package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env files into the process environment. Missing files are ignored;
// variables already set in the environment win.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays environment variables onto the file configuration.
func (c *Config) ApplyEnv() {
	c.Server.Port = getEnv("API_PORT", c.Server.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Storage.Kind = getEnv("STORAGE_KIND", c.Storage.Kind)
	c.Storage.Dir = getEnv("SNAPSHOT_DIR", c.Storage.Dir)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.RedisDB = getEnvAsInt("REDIS_DB", c.Storage.RedisDB)
	c.Storage.PostgresDSN = getEnv("POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.ClickHouseAddr = getEnv("CLICKHOUSE_ADDR", c.Storage.ClickHouseAddr)
	c.Storage.ClickHouseUsername = getEnv("CLICKHOUSE_USERNAME", c.Storage.ClickHouseUsername)
	c.Storage.ClickHousePassword = getEnv("CLICKHOUSE_PASSWORD", c.Storage.ClickHousePassword)
	c.BackfillStart = getEnv("BACKFILL_START", c.BackfillStart)
	c.Server.CORSOrigins = getEnvAsSlice("CORS_ORIGINS", c.Server.CORSOrigins, ",")
}

// Secret returns the value of the named environment variable, trimmed.
func Secret(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	parts := strings.Split(valStr, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
