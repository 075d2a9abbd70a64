package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type StoreKind string

const (
	StoreKind_Postgres StoreKind = "postgres"
	StoreKind_Mongo    StoreKind = "mongo"
)

var ErrMissingStoreURI = errors.New("STORE_URI (or MONGO_URI) is required")

type Config struct {
	Port                 string
	GrpcPort             string
	HealthCheckInterval  time.Duration
	StoreURI             string
	StoreKind            StoreKind
	StoreTimeout         time.Duration
	MongoDatabase        string
	MigrateOnStart       bool
	StrictDuplicateCheck bool
	ShutdownTimeout      time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaEncoder string

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "4000"),
		GrpcPort:             os.Getenv("GRPC_PORT"),
		StoreURI:             getEnv("STORE_URI", os.Getenv("MONGO_URI")),
		MongoDatabase:        getEnv("MONGO_DATABASE", "payments"),
		MigrateOnStart:       getBool("MIGRATE_ON_START", true),
		StrictDuplicateCheck: getBool("STRICT_DUPLICATE_CHECK", false),
		KafkaBrokers:         splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "payment_events"),
		KafkaEncoder:         getEnv("KAFKA_ENCODER", "json"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}

	if cfg.StoreURI == "" {
		return nil, ErrMissingStoreURI
	}
	kind, err := storeKind(cfg.StoreURI)
	if err != nil {
		return nil, err
	}
	cfg.StoreKind = kind

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}
	cfg.GrpcPort = strings.TrimSpace(cfg.GrpcPort)
	if cfg.GrpcPort != "" {
		if _, err := strconv.Atoi(cfg.GrpcPort); err != nil {
			return nil, fmt.Errorf("invalid GRPC_PORT %q: %w", cfg.GrpcPort, err)
		}
	}

	if cfg.StoreTimeout, err = getDuration("STORE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HealthCheckInterval, err = getDuration("HEALTH_CHECK_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// GrpcAddr is empty when the gRPC health endpoint is disabled.
func (c *Config) GrpcAddr() string {
	if c.GrpcPort == "" {
		return ""
	}
	return ":" + c.GrpcPort
}

func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func storeKind(uri string) (StoreKind, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid store uri: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return StoreKind_Postgres, nil
	case "mongodb", "mongodb+srv":
		return StoreKind_Mongo, nil
	default:
		return "", fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitCSV(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
