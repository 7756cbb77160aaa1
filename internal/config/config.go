package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App        *AppConfig        `yaml:"app"`
	Database   *DatabaseConfig   `yaml:"database"`
	Redis      *RedisConfig      `yaml:"redis"`
	Push       *PushConfig       `yaml:"push"`
	Storage    *StorageConfig    `yaml:"storage"`
	Classifier *ClassifierConfig `yaml:"classifier"`
	Lifecycle  *LifecycleConfig  `yaml:"lifecycle"`
	Outbox     *OutboxConfig     `yaml:"outbox"`
	Security   *SecurityConfig   `yaml:"security"`
	WebSocket  *WebSocketConfig  `yaml:"websocket"`
}

type AppConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Environment     string        `yaml:"environment"`
	Port            int           `yaml:"port"`
	Host            string        `yaml:"host"`
	Debug           bool          `yaml:"debug"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	LogOutput       string        `yaml:"log_output"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	SubmitLimitPerDay  int           `yaml:"submit_limit_per_day"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

func Load() (*Config, error) {
	config := &Config{
		App:        loadAppConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Push:       loadPushConfig(),
		Storage:    loadStorageConfig(),
		Classifier: loadClassifierConfig(),
		Lifecycle:  loadLifecycleConfig(),
		Outbox:     loadOutboxConfig(),
		Security:   loadSecurityConfig(),
		WebSocket:  loadWebSocketConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings that would otherwise fail deep inside a request.
func (c *Config) Validate() error {
	var errs []error

	if c.Lifecycle.NotifyRadiusKM <= 0 {
		errs = append(errs, fmt.Errorf("NOTIFY_RADIUS_KM must be positive, got %v", c.Lifecycle.NotifyRadiusKM))
	}

	switch c.Database.Driver {
	case DatabaseDriverMongo, DatabaseDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	switch c.Storage.Provider {
	case StorageProviderLocal, StorageProviderGCP, StorageProviderAWS:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}

	switch c.Push.Provider {
	case PushProviderFCM, PushProviderLog:
	default:
		errs = append(errs, fmt.Errorf("unknown PUSH_PROVIDER %q", c.Push.Provider))
	}

	if c.Classifier.BaseURL == "" {
		errs = append(errs, errors.New("CLASSIFIER_BASE_URL is required"))
	}

	if c.IsProduction() && (c.Security.JWTSecret == "" || c.Security.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}

	if c.Database.MigrateDownTo >= 0 && c.Database.Driver != DatabaseDriverMongo {
		errs = append(errs, errors.New("MONGODB_MIGRATE_DOWN_TO requires the mongodb driver"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

const defaultJWTSecret = "sahayak-dev-secret"

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:            getEnv("APP_NAME", "Sahayak"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		Environment:     getEnv("APP_ENV", "development"),
		Port:            getEnvAsInt("APP_PORT", 8080),
		Host:            getEnv("APP_HOST", "0.0.0.0"),
		Debug:           getEnvAsBool("APP_DEBUG", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogOutput:       getEnv("LOG_OUTPUT", "stdout"),
		ShutdownTimeout: getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		SubmitLimitPerDay:  getEnvAsInt("SUBMIT_LIMIT_PER_DAY", 20),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
