package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"payments-service/internal/models"

	"gopkg.in/yaml.v2"
)

// Load builds the configuration from environment variables with sane
// defaults. If CONFIG_FILE points at a YAML file, its values override the
// environment-derived ones.
func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	retryDelay, err := getEnvDuration("RETRY_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	idleTimeout, err := getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "payments.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			IdleTimeout:     idleTimeout,
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Retry: models.RetryConfig{
			MaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			Delay:       retryDelay,
		},
		Events: models.EventsConfig{
			Topic:              getEnvString("EVENTS_TOPIC", "payment-events"),
			KafkaEnabled:       getEnvBool("KAFKA_ENABLED", false),
			KafkaBrokers:       getEnvStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			PollInterval:       pollInterval,
			BatchSize:          getEnvInt("OUTBOX_BATCH_SIZE", 100),
			MaxPublishAttempts: getEnvInt("OUTBOX_MAX_PUBLISH_ATTEMPTS", 5),
		},
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := applyFile(cfg, file); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// fileConfig mirrors the subset of Config that may be set via CONFIG_FILE.
// Durations are parsed from strings like "100ms".
type fileConfig struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Retry struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Delay       string `yaml:"delay"`
	} `yaml:"retry"`
	Events struct {
		Topic        string   `yaml:"topic"`
		KafkaEnabled *bool    `yaml:"kafka_enabled"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
	} `yaml:"events"`
}

func applyFile(cfg *models.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("unable to parse config file %s: %w", path, err)
	}

	if fc.Database.Path != "" {
		cfg.Database.Path = fc.Database.Path
	}
	if fc.Server.Addr != "" {
		cfg.Server.Addr = fc.Server.Addr
	}
	if fc.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = fc.Retry.MaxAttempts
	}
	if fc.Retry.Delay != "" {
		delay, err := time.ParseDuration(fc.Retry.Delay)
		if err != nil {
			return fmt.Errorf("invalid retry delay %q in %s: %w", fc.Retry.Delay, path, err)
		}
		cfg.Retry.Delay = delay
	}
	if fc.Events.Topic != "" {
		cfg.Events.Topic = fc.Events.Topic
	}
	if fc.Events.KafkaEnabled != nil {
		cfg.Events.KafkaEnabled = *fc.Events.KafkaEnabled
	}
	if len(fc.Events.KafkaBrokers) > 0 {
		cfg.Events.KafkaBrokers = fc.Events.KafkaBrokers
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
