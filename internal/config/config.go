package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Backend names accepted by GOMARKET_STORE.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is everything the binary reads from the environment.
type Config struct {
	Store     string // file | redis | memory
	DataFile  string // path of the JSON file for the file backend
	RedisAddr string // host:port or redis:// URL
	LogLevel  string
	Theme     string // classic | neon | mono
}

// Load reads an optional .env file (existing env wins) and then the process
// environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Store:     strings.ToLower(getEnv("GOMARKET_STORE", BackendFile)),
		DataFile:  getEnv("GOMARKET_DATA_FILE", ""),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		LogLevel:  getEnv("LOG_LEVEL", "warn"),
		Theme:     getEnv("GOMARKET_THEME", "classic"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("GOMARKET_STORE must be one of file, redis, memory (got %q)", c.Store)
	}
	if c.Store == BackendRedis && strings.TrimSpace(c.RedisAddr) == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis store")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
