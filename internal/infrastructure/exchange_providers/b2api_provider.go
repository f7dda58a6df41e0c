// internal/infrastructure/exchange_providers/b2api_provider.go
package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/shvark-exchange-form/internal/domain"
	"github.com/shopspring/decimal"
)

const calcPath = "/b2api/change/user/pair/calc"

type B2Config struct {
	BaseURL      string
	PairID       int
	ClientHeader string
	ClientID     string
	Timeout      time.Duration
}

// B2Provider запрашивает курс пары RUB/USDT для конкретной суммы
type B2Provider struct {
	client *http.Client
	cfg    B2Config
	now    func() time.Time
}

type calcRequest struct {
	PairID    int          `json:"pairId"`
	InAmount  *json.Number `json:"inAmount"`
	OutAmount *json.Number `json:"outAmount"`
	Timestamp int64        `json:"timestamp"`
}

// price[0] - обратный курс, price[1] - прямой
type calcResponse struct {
	Price []decimal.Decimal `json:"price"`
}

func NewB2Provider(cfg B2Config) *B2Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &B2Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg: cfg,
		now: time.Now,
	}
}

func (p *B2Provider) GetName() string {
	return "b2api"
}

func (p *B2Provider) GetRate(ctx context.Context, query domain.RateQuery) (domain.Rate, error) {
	amount := json.Number(query.Amount.String())
	body := calcRequest{
		PairID:    p.cfg.PairID,
		Timestamp: p.now().UnixMilli(),
	}
	switch query.Side {
	case domain.SideLeft:
		body.InAmount = &amount
	case domain.SideRight:
		body.OutAmount = &amount
	default:
		return domain.Rate{}, fmt.Errorf("%w: %q", domain.ErrInvalidSide, query.Side)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+calcPath, bytes.NewReader(payload))
	if err != nil {
		return domain.Rate{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.ClientHeader != "" {
		req.Header.Set(p.cfg.ClientHeader, p.cfg.ClientID)
	}
	if query.ID != "" {
		req.Header.Set("X-Request-Id", query.ID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("%w: %v", domain.ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Rate{}, fmt.Errorf("%w: b2api returned status %d", domain.ErrBadRateResponse, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Rate{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed calcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Rate{}, fmt.Errorf("%w: %v", domain.ErrBadRateResponse, err)
	}
	if len(parsed.Price) != 2 {
		return domain.Rate{}, fmt.Errorf("%w: expected 2 prices, got %d", domain.ErrBadRateResponse, len(parsed.Price))
	}

	return domain.Rate{
		Reverse: parsed.Price[0],
		Forward: parsed.Price[1],
	}, nil
}

// IsHealthy проверяет доступность источника курса на минимальной сумме
func (p *B2Provider) IsHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := p.GetRate(ctx, domain.RateQuery{
		Side:   domain.SideLeft,
		Amount: domain.DefaultLeftBound().Min,
	})
	return err == nil
}
