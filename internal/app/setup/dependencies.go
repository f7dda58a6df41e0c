package setup

import (
	"fmt"
	"log/slog"

	"github.com/LavaJover/shvark-exchange-form/internal/config"
	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	providers "github.com/LavaJover/shvark-exchange-form/internal/infrastructure/exchange_providers"
	publisher "github.com/LavaJover/shvark-exchange-form/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-exchange-form/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-exchange-form/internal/usecase/form"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type QuotePublisher interface {
	domain.QuotePublisher
	Close() error
}

type Dependencies struct {
	Config    *config.FormConfig
	DB        *gorm.DB
	Registry  *prometheus.Registry
	Metrics   *metrics.FormMetrics
	Provider  *providers.B2Provider
	Publisher QuotePublisher
	Journal   *postgres.DefaultRateJournalRepository
	Form      *form.Form
}

// InitializeDependencies собирает форму и ее инфраструктуру.
// Kafka и база подключаются, только если они заданы в конфиге.
func InitializeDependencies(cfg *config.FormConfig, logger *slog.Logger) (*Dependencies, error) {
	settings, err := cfg.FormSettings()
	if err != nil {
		return nil, fmt.Errorf("form settings: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	formMetrics := metrics.NewFormMetrics(registry)

	provider := providers.NewB2Provider(providers.B2Config{
		BaseURL:      cfg.Rates.BaseURL,
		PairID:       cfg.Rates.PairID,
		ClientHeader: cfg.Rates.ClientHeader,
		ClientID:     cfg.Rates.ClientID,
		Timeout:      cfg.Rates.RequestTimeout,
	})

	deps := &Dependencies{
		Config:    cfg,
		Registry:  registry,
		Metrics:   formMetrics,
		Provider:  provider,
		Publisher: initQuotePublisher(cfg, logger),
	}

	opts := []form.Option{
		form.WithLogger(logger),
		form.WithRecorder(formMetrics),
		form.WithPublisher(deps.Publisher),
		form.WithRequestTimeout(cfg.Rates.RequestTimeout),
	}

	if cfg.FormDB.Dsn != "" {
		deps.DB = postgres.MustInitDB(cfg.FormDB)
		if err := migrate.RunMigrations(deps.DB, cfg.FormDB.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		deps.Journal = postgres.NewDefaultRateJournalRepository(deps.DB)
		opts = append(opts, form.WithJournal(deps.Journal))
	} else {
		logger.Info("form_db.dsn is empty, rate journal disabled")
	}

	f, err := form.NewForm(settings, provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}
	deps.Form = f

	return deps, nil
}

// History returns nil when the journal is disabled.
func (d *Dependencies) History() domain.RateHistory {
	if d.Journal == nil {
		return nil
	}
	return d.Journal
}

func (d *Dependencies) Close() error {
	d.Form.Close()
	var firstErr error
	if err := d.Publisher.Close(); err != nil {
		firstErr = fmt.Errorf("publisher: %w", err)
	}
	if d.DB != nil {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("db: %w", err)
		}
	}
	return firstErr
}

func initQuotePublisher(cfg *config.FormConfig, logger *slog.Logger) QuotePublisher {
	if len(cfg.KafkaService.Brokers) == 0 {
		logger.Info("kafka brokers are not configured, quote events disabled")
		return publisher.NopPublisher{}
	}
	return publisher.NewKafkaPublisher(publisher.Config{
		Brokers:    cfg.KafkaService.Brokers,
		Topic:      cfg.KafkaService.Topic,
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	}, logger)
}
