package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/stellar/go/network"

	"scholarship/internal/retry"
	"scholarship/internal/storage"
)

type Config struct {
	// HTTP API port
	APIPort int

	// debug, info, warn or error
	LogLevel string

	// Network passphrase ( mainnet or testnet ), signed invocations commit to it
	NetworkPassphrase string

	// Id of the contract instance this service hosts
	ContractID string

	// Durable storage: memory, sqlite or postgres
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string

	// Optional Redis for the temporary tier
	RedisURL    string
	RedisPrefix string

	// Lifetime of temporary entries
	TemporaryTTL time.Duration

	// Backoff for backend connections at startup
	Retry retry.Config
}

// Load reads the configuration from the environment, after loading .env if present
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIPort:           getEnvAsInt("API_PORT", 8080),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		NetworkPassphrase: getEnv("NETWORK_PASSPHRASE", network.TestNetworkPassphrase),
		ContractID:        getEnv("CONTRACT_ID", ""),
		StorageDriver:     strings.ToLower(getEnv("STORAGE_DRIVER", storage.DriverMemory)),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		SQLitePath:        getEnv("SQLITE_PATH", "data/scholarship.db"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPrefix:       getEnv("REDIS_PREFIX", "scholarship"),
		TemporaryTTL:      time.Duration(getEnvAsInt("TEMPORARY_TTL_SEC", 86400)) * time.Second,
		Retry:             loadRetry(),
	}
}

func loadRetry() retry.Config {
	defaults := retry.DefaultConfig()
	return retry.Config{
		Enabled:      getEnvAsBool("RETRY_ENABLED", defaults.Enabled),
		MaxRetries:   getEnvAsInt("RETRY_MAX_RETRIES", defaults.MaxRetries),
		InitialDelay: time.Duration(getEnvAsInt("RETRY_INITIAL_DELAY_SEC", int(defaults.InitialDelay.Seconds()))) * time.Second,
		MaxDelay:     time.Duration(getEnvAsInt("RETRY_MAX_DELAY_SEC", int(defaults.MaxDelay.Seconds()))) * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ContractID == "" {
		return fmt.Errorf("CONTRACT_ID is required")
	}
	if c.NetworkPassphrase == "" {
		return fmt.Errorf("NETWORK_PASSPHRASE is required")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT %d out of range", c.APIPort)
	}
	if c.TemporaryTTL <= 0 {
		return fmt.Errorf("TEMPORARY_TTL_SEC must be positive")
	}

	switch c.StorageDriver {
	case storage.DriverMemory:
	case storage.DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case storage.DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}

// StorageOptions returns the options for storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.StorageDriver,
		DatabaseURL: c.DatabaseURL,
		SQLitePath:  c.SQLitePath,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

// Helper: get string from env
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Helper: get bool from env
func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// Helper: get int from env
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
