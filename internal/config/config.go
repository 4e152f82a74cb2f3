package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string       `yaml:"env" env:"ENV" env-default:"local"`
	AdminToken   string       `yaml:"admin_token" env:"ADMIN_TOKEN"`
	HTTPServer   HTTPServer   `yaml:"http_server"`
	DB           DB           `yaml:"db"`
	Cache        Cache        `yaml:"cache"`
	FileStorage  FileStorage  `yaml:"file_storage"`
	Verification Verification `yaml:"verification"`
	Sweeper      Sweeper      `yaml:"sweeper"`
	Outbox       Outbox       `yaml:"outbox"`
	Kafka        Kafka        `yaml:"kafka"`
	Tracing      Tracing      `yaml:"tracing"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type DB struct {
	Addr            string        `yaml:"addr" env:"DB_ADDR" env-default:"localhost"`
	Port            int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"DB_PASSWORD"`
	DB              string        `yaml:"db" env:"DB_NAME" env-default:"docauth"`
	SSLMode         string        `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

type Cache struct {
	Addr         string        `yaml:"addr" env:"CACHE_ADDR" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"CACHE_PASSWORD"`
	DB           int           `yaml:"db" env:"CACHE_DB" env-default:"0"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"24h"`
	DocumentsTTL time.Duration `yaml:"documents_ttl" env-default:"5m"`
}

type FileStorage struct {
	Path string `yaml:"path" env:"FILE_STORAGE_PATH" env-default:"./storage"`
}

type Verification struct {
	MaxAttempts int           `yaml:"max_attempts" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env-default:"10ms"`
}

type Sweeper struct {
	Enabled   bool          `yaml:"enabled" env:"SWEEPER_ENABLED" env-default:"true"`
	Interval  time.Duration `yaml:"interval" env-default:"1m"`
	BatchSize int           `yaml:"batch_size" env-default:"100"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
}

type Outbox struct {
	Consumer      string        `yaml:"consumer" env:"OUTBOX_CONSUMER"`
	PollInterval  time.Duration `yaml:"poll_interval" env-default:"1s"`
	LeaseTTL      time.Duration `yaml:"lease_ttl" env-default:"30s"`
	BatchSize     int           `yaml:"batch_size" env-default:"50"`
	MaxAttempts   int           `yaml:"max_attempts" env-default:"8"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" env-default:"1s"`
	RetryMaxDelay time.Duration `yaml:"retry_max_delay" env-default:"5m"`
}

// Kafka is optional. With no brokers, audit entries and notifications are
// written to the application log.
type Kafka struct {
	Brokers           []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	ClientID          string   `yaml:"client_id" env-default:"docauth"`
	AuditTopic        string   `yaml:"audit_topic" env-default:"docauth.audit"`
	NotificationTopic string   `yaml:"notification_topic" env-default:"docauth.notifications"`
}

type Tracing struct {
	Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string  `yaml:"service_name" env-default:"docauth"`
	SampleRatio float64 `yaml:"sample_ratio" env-default:"1"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}
