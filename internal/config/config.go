package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	GRPC   GRPCConfig
	Rabbit RabbitConfig
	Redis  RedisConfig
	MinIO  MinIOConfig
	Otel   OtelConfig
}

type AppConfig struct {
	Env         string // dev | prod
	LogLevel    string
	ServiceName string
}

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
	// Уровень изоляции транзакций записи: serializable | repeatable_read | read_committed.
	TxIsolation string
}

type HTTPConfig struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type GRPCConfig struct {
	Addr string
}

// RabbitConfig: пустой URL отключает публикацию событий.
type RabbitConfig struct {
	URL      string
	Exchange string
}

// RedisConfig: пустой Addr отключает Idempotency-Key.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

// MinIOConfig: пустой Endpoint: выгрузки отдаются напрямую в ответе.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// OtelConfig: пустой Endpoint, трейсы не экспортируются.
type OtelConfig struct {
	Endpoint string
}

var defaults = map[string]any{
	"APP_ENV":                     "dev",
	"LOG_LEVEL":                   "info",
	"SERVICE_NAME":                "studio-booking",
	"DB_HOST":                     "postgres",
	"DB_PORT":                     5432,
	"DB_USER":                     "booking",
	"DB_PASSWORD":                 "booking",
	"DB_NAME":                     "booking_db",
	"DB_SSLMODE":                  "disable",
	"DB_TIMEZONE":                 "UTC",
	"DB_MAX_OPEN_CONNS":           10,
	"DB_MAX_IDLE_CONNS":           5,
	"DB_CONN_MAX_LIFETIME_MIN":    30,
	"DB_TX_ISOLATION":             "serializable",
	"HTTP_ADDR":                   ":8080",
	"HTTP_RATE_LIMIT_RPS":         20.0,
	"HTTP_RATE_LIMIT_BURST":       40,
	"GRPC_ADDR":                   ":50051",
	"RABBITMQ_URL":                "",
	"RABBITMQ_EXCHANGE":           "studio.events",
	"REDIS_ADDR":                  "",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"IDEMPOTENCY_TTL":             "24h",
	"MINIO_ENDPOINT":              "",
	"MINIO_ACCESS_KEY":            "",
	"MINIO_SECRET_KEY":            "",
	"MINIO_BUCKET":                "billings",
	"MINIO_USE_SSL":               false,
	"MINIO_URL_EXPIRY":            "1h",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			ServiceName: v.GetString("SERVICE_NAME"),
		},
		DB: DBConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			TimeZone:        v.GetString("DB_TIMEZONE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifeTime: v.GetInt("DB_CONN_MAX_LIFETIME_MIN"),
			TxIsolation:     strings.ToLower(v.GetString("DB_TX_ISOLATION")),
		},
		HTTP: HTTPConfig{
			Addr:           v.GetString("HTTP_ADDR"),
			RateLimitRPS:   v.GetFloat64("HTTP_RATE_LIMIT_RPS"),
			RateLimitBurst: v.GetInt("HTTP_RATE_LIMIT_BURST"),
		},
		GRPC: GRPCConfig{Addr: v.GetString("GRPC_ADDR")},
		Rabbit: RabbitConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			URLExpiry: v.GetDuration("MINIO_URL_EXPIRY"),
		},
		Otel: OtelConfig{Endpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")},
	}

	// минимальная валидация
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	switch cfg.DB.TxIsolation {
	case "serializable", "repeatable_read", "read_committed":
	default:
		return nil, fmt.Errorf("invalid DB_TX_ISOLATION %q", cfg.DB.TxIsolation)
	}
	if cfg.HTTP.Addr == "" {
		return nil, fmt.Errorf("invalid HTTP config: addr must not be empty")
	}

	return cfg, nil
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }
