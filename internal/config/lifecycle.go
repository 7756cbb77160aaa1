package config

import (
	"time"
)

type ClassifierConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LifecycleConfig struct {
	NotifyRadiusKM   float64       `yaml:"notify_radius_km"`
	LockTTL          time.Duration `yaml:"lock_ttl"`
	LockWait         time.Duration `yaml:"lock_wait"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

type OutboxConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Schedule    string `yaml:"schedule"`
	MaxAttempts int    `yaml:"max_attempts"`
	BatchSize   int    `yaml:"batch_size"`
}

func loadClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		BaseURL: getEnv("CLASSIFIER_BASE_URL", "http://localhost:5000"),
		Timeout: getEnvAsDuration("CLASSIFIER_TIMEOUT", 15*time.Second),
	}
}

func loadLifecycleConfig() *LifecycleConfig {
	return &LifecycleConfig{
		NotifyRadiusKM:   getEnvAsFloat64("NOTIFY_RADIUS_KM", 2.0),
		LockTTL:          getEnvAsDuration("ISSUE_LOCK_TTL", 10*time.Second),
		LockWait:         getEnvAsDuration("ISSUE_LOCK_WAIT", 5*time.Second),
		OperationTimeout: getEnvAsDuration("LIFECYCLE_OPERATION_TIMEOUT", 60*time.Second),
	}
}

func loadOutboxConfig() *OutboxConfig {
	return &OutboxConfig{
		Enabled:     getEnvAsBool("OUTBOX_RETRY_ENABLED", true),
		Schedule:    getEnv("OUTBOX_RETRY_SCHEDULE", "@every 1m"),
		MaxAttempts: getEnvAsInt("OUTBOX_MAX_ATTEMPTS", 5),
		BatchSize:   getEnvAsInt("OUTBOX_BATCH_SIZE", 100),
	}
}
