package config

import (
	"os"
	"strconv"
	"time"

	"vtstaff/internal/location"
)

// Config holds all configuration for the client and the emulator.
type Config struct {
	API      APIConfig
	Secret   SecretConfig
	Location LocationConfig
	Emulator EmulatorConfig
	NewRelic NewRelicConfig
}

// APIConfig holds supervisor API client configuration.
type APIConfig struct {
	BaseURL string

	// Timeout of zero leaves the call without a client-side deadline;
	// only the transport's own limits apply.
	Timeout time.Duration
}

// SecretConfig holds token storage configuration.
type SecretConfig struct {
	// TokenPath is the token file location. Empty selects the default
	// under the user home directory.
	TokenPath string
}

// LocationConfig holds the two accuracy tiers for position resolution.
type LocationConfig struct {
	High location.Tier
	Low  location.Tier
}

// EmulatorConfig holds the local supervisor stand-in configuration.
type EmulatorConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RedisAddr empty keeps emulator state in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewRelicConfig holds New Relic configuration for the emulator.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: getEnv("VTSTAFF_API_BASE_URL", "https://vtms.co.in/api/supervisor"),
			Timeout: getDurationEnv("VTSTAFF_HTTP_TIMEOUT", 0),
		},
		Secret: SecretConfig{
			TokenPath: getEnv("VTSTAFF_TOKEN_PATH", ""),
		},
		Location: LocationConfig{
			High: location.Tier{
				Timeout: getDurationEnv("VTSTAFF_LOCATION_HIGH_TIMEOUT", 20*time.Second),
				MaxAge:  getDurationEnv("VTSTAFF_LOCATION_HIGH_MAX_AGE", 10*time.Second),
			},
			Low: location.Tier{
				Timeout: getDurationEnv("VTSTAFF_LOCATION_LOW_TIMEOUT", 15*time.Second),
				MaxAge:  getDurationEnv("VTSTAFF_LOCATION_LOW_MAX_AGE", 60*time.Second),
			},
		},
		Emulator: EmulatorConfig{
			Port:          getEnv("EMULATOR_PORT", "8080"),
			ReadTimeout:   getDurationEnv("EMULATOR_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDurationEnv("EMULATOR_WRITE_TIMEOUT", 10*time.Second),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "vtms-emulator"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
