package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort int

	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}
	MigrationsPath string

	// Реквизиты PayU и callback-URL обязательны: без них сервис не стартует.
	PayUAuthURL        string
	PayUMerchantPosID  string
	PayUMerchantKey    string
	PayUCreateOrderURL string
	NotifyURL          string
	ServiceURL         string
	OrderDescription   string
	CurrencyCode       string

	JWTSecret string
	JWTTTL    time.Duration

	KafkaBrokerURL          string
	KafkaPaymentEventsTopic string

	OutboxPollInterval time.Duration
	OutboxPollTimeout  time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPPort = getEnvAsInt("BILLING_HTTP_PORT", 8080)

	cfg.DBConfig.Host = getEnvOrDefault("BILLING_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("BILLING_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("BILLING_DB_USER", "user")
	cfg.DBConfig.Password = getEnvOrDefault("BILLING_DB_PASSWORD", "password")
	cfg.DBConfig.Name = getEnvOrDefault("BILLING_DB_NAME", "billing_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("BILLING_DB_SSLMODE", "disable")
	cfg.MigrationsPath = getEnvOrDefault("BILLING_MIGRATIONS_PATH", "file://migrations")

	var missing []string
	require := func(key string) string {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			missing = append(missing, key)
		}
		return value
	}

	cfg.PayUAuthURL = require("PAYU_AUTH_URL")
	cfg.PayUMerchantPosID = require("PAYU_MERCHANT_POS_ID")
	cfg.PayUMerchantKey = require("PAYU_MERCHANT_KEY")
	cfg.PayUCreateOrderURL = require("PAYU_CREATE_ORDER_URL")
	cfg.NotifyURL = require("NOTIFY_URL")
	cfg.ServiceURL = require("SERVICE_URL")
	cfg.JWTSecret = require("JWT_SECRET")
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration keys: %s", strings.Join(missing, ", "))
	}

	cfg.OrderDescription = getEnvOrDefault("ORDER_DESCRIPTION", "Quantum machine simulator worktime")
	cfg.CurrencyCode = getEnvOrDefault("CURRENCY_CODE", "PLN")

	cfg.JWTTTL = getEnvAsDuration("JWT_TTL", 15*time.Minute)

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaPaymentEventsTopic = getEnvOrDefault("KAFKA_PAYMENT_EVENTS_TOPIC", "payment_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)

	return cfg, nil
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
