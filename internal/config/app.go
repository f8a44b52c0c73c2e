package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"facility-booking"`
	Env         string `envconfig:"ENV" default:"dev"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50051"`

	// Секрет HS256 для проверки токенов сервиса идентификации.
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// Пояс площадок, у которых он не задан.
	DefaultTimeZone string `envconfig:"DEFAULT_TIMEZONE" default:"Europe/Moscow"`

	// Пустой URL — уведомления только в лог.
	RabbitURL      string `envconfig:"RABBITMQ_URL"`
	RabbitExchange string `envconfig:"RABBITMQ_EXCHANGE" default:"booking.events"`

	// Пустой адрес — трассировка выключена.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func LoadAppConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("load app config: JWT_SECRET must not be empty")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location — пояс по умолчанию для площадок.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("default timezone %q: %w", c.DefaultTimeZone, err)
	}
	return loc, nil
}

func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
