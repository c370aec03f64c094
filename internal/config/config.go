package config

import (
	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP_PORT          string `env:"HTTP_PORT"`
	DB_STRING          string `env:"DB_STRING"`
	KAFKA_BROKERS      string `env:"KAFKA_BROKERS"`
	KAFKA_TOPIC        string `env:"KAFKA_TOPIC"`
	REDIS_ADDR         string `env:"REDIS_ADDR"`
	AUDIT_RETENTION    int    `env:"AUDIT_RETENTION_DAYS"`
	OUTBOX_BUFFER_SIZE int    `env:"OUTBOX_BUFFER_SIZE"`
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP_PORT == "" {
		cfg.HTTP_PORT = "8080"
	}
	if cfg.KAFKA_TOPIC == "" {
		cfg.KAFKA_TOPIC = "marketplace-events"
	}
	if cfg.AUDIT_RETENTION <= 0 {
		cfg.AUDIT_RETENTION = 365
	}
	if cfg.OUTBOX_BUFFER_SIZE <= 0 {
		cfg.OUTBOX_BUFFER_SIZE = 1024
	}

	return &cfg, nil
}
