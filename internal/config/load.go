package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigWithName loads configuration using the specified name, auto-detecting the file type
func LoadConfigWithName(configName string) (*Config, error) {
	return loadConfig(configName, "")
}

// LoadConfigWithNameAndType loads configuration with an explicit name and file type
func LoadConfigWithNameAndType(configName, configType string) (*Config, error) {
	return loadConfig(configName, configType)
}

// LoadConfig loads configuration from a .env file using the provided base name
func LoadConfig(configName string) (*Config, error) {
	configFileName := fmt.Sprintf("%s.env", configName)
	return loadConfig(configFileName, "env")
}

// loadConfig handles configuration loading from files and environment variables.
// It implements a layered approach to configuration:
// 1. Load defaults
// 2. Override with config file values (if found)
// 3. Override with environment variables
// 4. Validate the final configuration
//
// Diagnostics go to stderr; stdout is reserved for the CSV result.
func loadConfig(configName, configType string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(configName)
	if configType != "" {
		v.SetConfigType(configType)
	}

	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "WARNING: Error reading config file (%s): %v\n", v.ConfigFileUsed(), err)
		}
	}

	v.AutomaticEnv()

	config := &Config{
		Application: ApplicationConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Engine: EngineConfig{
			DisputePolicy: v.GetString("ENGINE_DISPUTE_POLICY"),
		},
		WorkerPool: WorkerPoolConfig{
			Size: v.GetInt("WORKER_POOL_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers:           v.GetString("KAFKA_BROKERS"),
			SnapshotTopic:     v.GetString("KAFKA_SNAPSHOT_TOPIC"),
			DLQTopic:          v.GetString("KAFKA_DLQ_TOPIC"),
			NumPartitions:     v.GetInt("KAFKA_NUM_PARTITIONS"),
			ReplicationFactor: v.GetInt("KAFKA_REPLICATION_FACTOR"),
			WriteTimeout:      v.GetDuration("KAFKA_WRITE_TIMEOUT"),
		},
		Metrics: MetricsConfig{
			TextfilePath: v.GetString("METRICS_TEXTFILE_PATH"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults initializes configuration with default values.
// These values are used when no configuration file or environment variables are present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "payments-engine")

	// 'warn' keeps stderr quiet for normal batch runs
	v.SetDefault("LOG_LEVEL", "warn")

	v.SetDefault("ENGINE_DISPUTE_POLICY", "accumulate")

	v.SetDefault("WORKER_POOL_SIZE", 1)

	// Kafka publishing is off unless brokers are provided
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_SNAPSHOT_TOPIC", "account_snapshots")
	v.SetDefault("KAFKA_DLQ_TOPIC", "")
	v.SetDefault("KAFKA_NUM_PARTITIONS", 1)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("KAFKA_WRITE_TIMEOUT", 10*time.Second)

	v.SetDefault("METRICS_TEXTFILE_PATH", "")
}
