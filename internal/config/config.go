// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for the ledger engine, the optional
// Kafka side channels and the metrics export.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/payments-engine/internal/domain/account"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a subsystem's configuration and is validated during startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Engine      EngineConfig
	WorkerPool  WorkerPoolConfig
	Kafka       KafkaConfig
	Metrics     MetricsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// EngineConfig contains ledger rule settings
type EngineConfig struct {
	DisputePolicy string // "accumulate" or "strict"
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Number of client partitions; 1 processes the batch sequentially
}

// KafkaConfig contains Kafka configuration. Publishing is disabled while
// Brokers is empty.
type KafkaConfig struct {
	Brokers           string
	SnapshotTopic     string // Topic receiving the final account snapshots
	DLQTopic          string // Topic for malformed input rows
	NumPartitions     int
	ReplicationFactor int
	WriteTimeout      time.Duration
}

// Enabled reports whether any Kafka publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return k.Brokers != ""
}

// MetricsConfig contains metrics export configuration
type MetricsConfig struct {
	TextfilePath string // Prometheus textfile written after the run; empty disables it
}

// validate performs validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	if _, err := account.ParseDisputePolicy(c.Engine.DisputePolicy); err != nil {
		validationErrors = append(validationErrors, "ENGINE_DISPUTE_POLICY must be 'accumulate' or 'strict'")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Kafka settings only matter once brokers are configured
	if c.Kafka.Enabled() {
		if c.Kafka.SnapshotTopic == "" && c.Kafka.DLQTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_SNAPSHOT_TOPIC or KAFKA_DLQ_TOPIC is required when KAFKA_BROKERS is set")
		}
		if c.Kafka.NumPartitions < 0 {
			validationErrors = append(validationErrors, "KAFKA_NUM_PARTITIONS must not be negative")
		}
		if c.Kafka.ReplicationFactor < 0 {
			validationErrors = append(validationErrors, "KAFKA_REPLICATION_FACTOR must not be negative")
		}
		if c.Kafka.WriteTimeout <= 0 {
			validationErrors = append(validationErrors, "KAFKA_WRITE_TIMEOUT must be greater than 0")
		}
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
