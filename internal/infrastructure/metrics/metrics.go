package metrics

import (
	"strconv"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FormMetrics содержит все метрики формы обмена
type FormMetrics struct {
	// Ввод пользователя
	EditsTotal    prometheus.CounterVec
	SettlesTotal  prometheus.CounterVec
	ShortcutTotal prometheus.CounterVec

	// Конвертации между полями
	ConversionsTotal prometheus.CounterVec

	// Запросы курса
	RateFetchesTotal  prometheus.CounterVec
	RateFetchDuration prometheus.HistogramVec
	ForwardRate       prometheus.Gauge
	Progress          prometheus.Gauge
}

// NewFormMetrics регистрирует метрики в reg
func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	factory := promauto.With(reg)
	return &FormMetrics{
		EditsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_form_edits_total",
				Help: "Количество изменений полей пользователем",
			},
			[]string{"side", "valid"},
		),

		SettlesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_form_settles_total",
				Help: "Количество фиксаций значения поля после паузы ввода",
			},
			[]string{"side", "outcome"},
		),

		ShortcutTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_form_shortcuts_total",
				Help: "Нажатия кнопок процента от максимума",
			},
			[]string{"side", "percent"},
		),

		ConversionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_form_conversions_total",
				Help: "Количество пересчетов между RUB и USDT",
			},
			[]string{"direction"},
		),

		RateFetchesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exchange_form_rate_fetches_total",
				Help: "Запросы курса по результату",
			},
			[]string{"outcome"},
		),

		RateFetchDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "exchange_form_rate_fetch_duration_seconds",
				Help:    "Время ответа источника курса",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),

		ForwardRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "exchange_form_forward_rate",
				Help: "Последний примененный прямой курс (RUB за 1 USDT)",
			},
		),

		Progress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "exchange_form_progress_percent",
				Help: "Положение левого поля между минимумом и максимумом",
			},
		),
	}
}

// RecordEdit записывает изменение поля
func (m *FormMetrics) RecordEdit(side domain.Side, valid bool) {
	m.EditsTotal.WithLabelValues(string(side), strconv.FormatBool(valid)).Inc()
}

// RecordSettle записывает фиксацию поля. reset - значение было заменено границей
func (m *FormMetrics) RecordSettle(side domain.Side, reset bool) {
	outcome := "rounded"
	if reset {
		outcome = "reset"
	}
	m.SettlesTotal.WithLabelValues(string(side), outcome).Inc()
}

func (m *FormMetrics) RecordConversion(direction domain.ConversionDirection) {
	m.ConversionsTotal.WithLabelValues(string(direction)).Inc()
}

func (m *FormMetrics) RecordShortcut(side domain.Side, percent int) {
	m.ShortcutTotal.WithLabelValues(string(side), strconv.Itoa(percent)).Inc()
}

// RecordRateFetch записывает результат запроса курса
func (m *FormMetrics) RecordRateFetch(outcome string, duration time.Duration) {
	m.RateFetchesTotal.WithLabelValues(outcome).Inc()
	m.RateFetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *FormMetrics) RecordRate(forward float64) {
	m.ForwardRate.Set(forward)
}

func (m *FormMetrics) RecordProgress(progress float64) {
	m.Progress.Set(progress)
}
