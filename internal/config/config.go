package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/LavaJover/shvark-exchange-form/internal/usecase/form"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"
)

type FormConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	LogConfig    `yaml:"log_config"`
	Rates        `yaml:"rates"`
	Form         `yaml:"form"`
	KafkaService `yaml:"kafka_service"`
	FormDB       `yaml:"form_db"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type GRPCServer struct {
	Host          string        `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port          string        `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
	CheckInterval time.Duration `yaml:"check_interval" env:"GRPC_CHECK_INTERVAL" env-default:"10s"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Rates struct {
	BaseURL         string        `yaml:"base_url" env:"RATES_BASE_URL" env-default:"https://awx.pro"`
	PairID          int           `yaml:"pair_id" env:"RATES_PAIR_ID" env-default:"1"`
	ClientHeader    string        `yaml:"client_header" env:"RATES_CLIENT_HEADER" env-default:"ClientId"`
	ClientID        string        `yaml:"client_id" env:"RATES_CLIENT_ID"`
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"RATES_REFRESH_INTERVAL" env-default:"1200ms"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"RATES_REQUEST_TIMEOUT" env-default:"5s"`
	DiscardStale    bool          `yaml:"discard_stale" env:"RATES_DISCARD_STALE" env-default:"false"`
}

type LeftField struct {
	Min  string `yaml:"min" env:"FORM_LEFT_MIN" env-default:"10000"`
	Max  string `yaml:"max" env:"FORM_LEFT_MAX" env-default:"70000000"`
	Step string `yaml:"step" env:"FORM_LEFT_STEP" env-default:"100"`
}

type RightField struct {
	Min  string `yaml:"min" env:"FORM_RIGHT_MIN" env-default:"0"`
	Step string `yaml:"step" env:"FORM_RIGHT_STEP" env-default:"0.000001"`
}

type Form struct {
	Left         LeftField     `yaml:"left"`
	Right        RightField    `yaml:"right"`
	LeftSettle   time.Duration `yaml:"left_settle" env:"FORM_LEFT_SETTLE" env-default:"1000ms"`
	RightSettle  time.Duration `yaml:"right_settle" env:"FORM_RIGHT_SETTLE" env-default:"1000ms"`
	RightConvert time.Duration `yaml:"right_convert" env:"FORM_RIGHT_CONVERT" env-default:"1200ms"`
	Shortcut     time.Duration `yaml:"shortcut" env:"FORM_SHORTCUT" env-default:"1200ms"`
}

type KafkaService struct {
	Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic      string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"exchange-form-quotes"`
	Username   string   `yaml:"username" env:"KAFKA_USERNAME"`
	Password   string   `yaml:"password" env:"KAFKA_PASSWORD"`
	TLSEnabled bool     `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED" env-default:"false"`
}

type FormDB struct {
	Dsn            string `yaml:"dsn" env:"FORM_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"FORM_DB_MIGRATIONS_PATH" env-default:"migrations"`
}

func MustLoad() *FormConfig {

	// Processing env config variable and file
	configPath := os.Getenv("FORM_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("FORM_CONFIG_PATH was not found\n")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

func Load(configPath string) (*FormConfig, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	// YAML to struct object
	var cfg FormConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *FormConfig) Validate() error {
	if _, err := c.FormSettings(); err != nil {
		return err
	}
	if c.Rates.BaseURL == "" {
		return fmt.Errorf("rates.base_url is required")
	}
	if c.Rates.ClientHeader != "" && c.Rates.ClientID == "" {
		return fmt.Errorf("rates.client_id is required when rates.client_header is %q", c.Rates.ClientHeader)
	}
	if c.Rates.PairID <= 0 {
		return fmt.Errorf("rates.pair_id must be positive, got %d", c.Rates.PairID)
	}
	if c.Rates.RefreshInterval <= 0 || c.Rates.RequestTimeout <= 0 {
		return fmt.Errorf("rates intervals must be positive")
	}
	if c.GRPCServer.CheckInterval <= 0 {
		return fmt.Errorf("grpc_server.check_interval must be positive, got %s", c.GRPCServer.CheckInterval)
	}
	return nil
}

// FormSettings собирает настройки формы из строковых значений конфига
func (c *FormConfig) FormSettings() (form.Settings, error) {
	s := form.DefaultSettings()

	var err error
	if s.Left.Min, err = parseDecimal("form.left.min", c.Form.Left.Min); err != nil {
		return s, err
	}
	if s.Left.Max, err = parseDecimal("form.left.max", c.Form.Left.Max); err != nil {
		return s, err
	}
	if s.Left.Step, err = parseDecimal("form.left.step", c.Form.Left.Step); err != nil {
		return s, err
	}
	if s.Right.Min, err = parseDecimal("form.right.min", c.Form.Right.Min); err != nil {
		return s, err
	}
	if s.Right.Step, err = parseDecimal("form.right.step", c.Form.Right.Step); err != nil {
		return s, err
	}
	s.Left.HasMax = true

	if err := s.Left.Validate(); err != nil {
		return s, fmt.Errorf("form.left: %w", err)
	}
	if err := s.Right.Validate(); err != nil {
		return s, fmt.Errorf("form.right: %w", err)
	}

	durations := map[string]time.Duration{
		"form.left_settle":   c.Form.LeftSettle,
		"form.right_settle":  c.Form.RightSettle,
		"form.right_convert": c.Form.RightConvert,
		"form.shortcut":      c.Form.Shortcut,
	}
	for name, d := range durations {
		if d <= 0 {
			return s, fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	s.LeftSettle = c.Form.LeftSettle
	s.RightSettle = c.Form.RightSettle
	s.RightConvert = c.Form.RightConvert
	s.Shortcut = c.Form.Shortcut
	s.DiscardStaleRates = c.Rates.DiscardStale
	return s, nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w: %q is not a number", name, domain.ErrInvalidBound, value)
	}
	return d, nil
}
