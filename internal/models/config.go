package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Retry    RetryConfig
	Events   EventsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// RetryConfig bounds the optimistic-lock retry loop around balance writes.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// EventsConfig holds outbox dispatcher and Kafka producer settings.
// With KafkaEnabled false, events are written to the log instead of a broker.
type EventsConfig struct {
	Topic              string
	KafkaEnabled       bool
	KafkaBrokers       []string
	PollInterval       time.Duration
	BatchSize          int
	MaxPublishAttempts int
}
