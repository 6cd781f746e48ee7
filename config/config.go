package config

import (
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/detection"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	AppVersion                    string   `env:"APP_VERSION" env-default:"dev"`
	Environment                   string   `env:"ENVIRONMENT" env-default:"local"`
	Port                          int      `env:"PORT" env-default:"3004"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  int           `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Tracing
	TracingEnabled      bool    `env:"TRACING_ENABLED" env-default:"false"`
	TracingOTLPEndpoint string  `env:"TRACING_OTLP_ENDPOINT" env-default:"localhost:4317"`
	TracingOTLPProtocol string  `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
	TracingInsecure     bool    `env:"TRACING_INSECURE" env-default:"true"`
	TracingSampleRate   float64 `env:"TRACING_SAMPLE_RATE" env-default:"1.0"`

	// Kafka Consumer (parsed statement batches from the extraction service)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"parsed-statements"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"clover-consumer"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"true"`

	// Kafka Producer settings
	KafkaOutputTopic  string `env:"KAFKA_OUTPUT_TOPIC" env-default:"duplicate-events"`
	KafkaBatchSize    int    `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Detection
	ExactDateToleranceDays         int     `env:"EXACT_DATE_TOLERANCE_DAYS" env-default:"0"`
	FuzzyDateToleranceDays         int     `env:"FUZZY_DATE_TOLERANCE_DAYS" env-default:"2"`
	AmountTolerancePercent         float64 `env:"AMOUNT_TOLERANCE_PERCENT" env-default:"0.01"`
	DescriptionSimilarityThreshold float64 `env:"DESCRIPTION_SIMILARITY_THRESHOLD" env-default:"0.8"`
	ExactMatchThreshold            float64 `env:"EXACT_MATCH_THRESHOLD" env-default:"1.0"`
	FuzzyMatchThreshold            float64 `env:"FUZZY_MATCH_THRESHOLD" env-default:"0.85"`
	CompositeMatchThreshold        float64 `env:"COMPOSITE_MATCH_THRESHOLD" env-default:"0.85"`
	AutoSkipThreshold              float64 `env:"AUTO_SKIP_THRESHOLD" env-default:"0.98"`
	UseCompositeMatching           bool    `env:"USE_COMPOSITE_MATCHING" env-default:"true"`

	// Ingestion
	ImportLockTTLSeconds     int `env:"IMPORT_LOCK_TTL_SECONDS" env-default:"300"`
	ImportLockTimeoutSeconds int `env:"IMPORT_LOCK_TIMEOUT_SECONDS" env-default:"30"`
	ExistingLookbackDays     int `env:"EXISTING_LOOKBACK_DAYS" env-default:"90"`
}

// Load reads the configuration from the environment, applying values from a
// .env file when one is present
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// DatabaseConfig returns the PostgreSQL connection settings
func (c Config) DatabaseConfig() database.ConnectionConfig {
	return database.ConnectionConfig{
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		User:            c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Database:        c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

// MigrationConfig returns the migration settings
func (c Config) MigrationConfig() database.MigrationConfig {
	return database.MigrationConfig{
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             uint(c.DatabaseMigrationVersion),
		AutoRollback:        c.DatabaseMigrationAutoRollback,
	}
}

// RedisConfig returns the Redis connection settings
func (c Config) RedisConfig() redis.Config {
	return redis.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// ProducerConfig returns the Kafka producer settings
func (c Config) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		Topic:        c.KafkaOutputTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

// ConsumerConfig returns the Kafka consumer settings
func (c Config) ConsumerConfig() kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:       c.KafkaBrokers,
		Topic:         c.KafkaInputTopic,
		ConsumerGroup: c.KafkaConsumerGroup,
	}
}

// DetectionConfig returns the detection thresholds and tolerances
func (c Config) DetectionConfig() detection.Config {
	return detection.Config{
		ExactDateToleranceDays:         c.ExactDateToleranceDays,
		FuzzyDateToleranceDays:         c.FuzzyDateToleranceDays,
		AmountTolerancePercent:         c.AmountTolerancePercent,
		DescriptionSimilarityThreshold: c.DescriptionSimilarityThreshold,
		ExactMatchThreshold:            c.ExactMatchThreshold,
		FuzzyMatchThreshold:            c.FuzzyMatchThreshold,
		CompositeMatchThreshold:        c.CompositeMatchThreshold,
		AutoSkipThreshold:              c.AutoSkipThreshold,
	}
}

// IngestOptions returns the pipeline settings
func (c Config) IngestOptions() ingest.Options {
	return ingest.Options{
		AutoSkipThreshold: c.AutoSkipThreshold,
		LookbackDays:      c.ExistingLookbackDays,
		LockTTL:           time.Duration(c.ImportLockTTLSeconds) * time.Second,
		LockTimeout:       time.Duration(c.ImportLockTimeoutSeconds) * time.Second,
	}
}

// TracingConfig returns the tracer provider settings
func (c Config) TracingConfig() tracing.ProviderConfig {
	return tracing.ProviderConfig{
		Enabled:        c.TracingEnabled,
		ServiceName:    c.AppName,
		ServiceVersion: c.AppVersion,
		Environment:    c.Environment,
		SampleRate:     c.TracingSampleRate,
		OTLP: exporters.OTLPConfig{
			Endpoint: c.TracingOTLPEndpoint,
			Protocol: c.TracingOTLPProtocol,
			Insecure: c.TracingInsecure,
			Timeout:  10 * time.Second,
		},
	}
}
