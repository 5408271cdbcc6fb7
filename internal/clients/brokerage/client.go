// Package brokerage implements the brokerage data collaborator client.
package brokerage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// requestTimeout bounds every outbound call so an unreachable collaborator
// degrades to an empty result instead of hanging the request path.
const requestTimeout = 10 * time.Second

// Client talks to the brokerage REST API.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
	log       zerolog.Logger
}

// NewClient creates a new brokerage client
func NewClient(baseURL, apiKey, apiSecret string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log: log.With().Str("client", "brokerage").Logger(),
	}
}

// SetCredentials updates API credentials after construction, so keys loaded
// from the settings store can replace environment placeholders.
func (c *Client) SetCredentials(key, secret string) {
	c.apiKey = key
	c.apiSecret = secret
}

// positionPayload is the wire format for a single position.
type positionPayload struct {
	Symbol           string      `json:"symbol"`
	Qty              json.Number `json:"qty"`
	AvgEntryPrice    json.Number `json:"avg_entry_price"`
	CurrentPrice     json.Number `json:"current_price"`
	MarketValue      json.Number `json:"market_value"`
	UnrealizedPnL    json.Number `json:"unrealized_pl"`
	UnrealizedPnLPct json.Number `json:"unrealized_plpc"`
	DailyPnL         *string     `json:"unrealized_intraday_pl,omitempty"`
}

// accountPayload is the wire format for the account summary.
type accountPayload struct {
	PortfolioValue json.Number `json:"portfolio_value"`
	DailyPnL       json.Number `json:"day_trade_pl"`
	BuyingPower    json.Number `json:"buying_power"`
}

// GetPositions fetches current positions. An unreachable upstream returns an
// empty slice, never an error, so callers can keep serving.
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	var payload []positionPayload
	if err := c.get(ctx, "/v2/positions", &payload); err != nil {
		c.log.Warn().Err(err).Msg("Brokerage unreachable, returning empty positions")
		return []domain.Position{}, nil
	}

	positions := make([]domain.Position, 0, len(payload))
	for _, p := range payload {
		pos := domain.Position{
			Symbol:           p.Symbol,
			Quantity:         num(p.Qty),
			AvgEntryPrice:    num(p.AvgEntryPrice),
			CurrentPrice:     num(p.CurrentPrice),
			MarketValue:      num(p.MarketValue),
			UnrealizedPnL:    num(p.UnrealizedPnL),
			UnrealizedPnLPct: num(p.UnrealizedPnLPct) * 100,
		}
		if p.DailyPnL != nil {
			if v, err := strconv.ParseFloat(*p.DailyPnL, 64); err == nil {
				pos.DailyPnL = &v
			}
		}
		positions = append(positions, pos)
	}

	return positions, nil
}

// GetAccountSummary fetches the account-level summary. Failures resolve to a
// zeroed summary with IsConnected=false.
func (c *Client) GetAccountSummary(ctx context.Context) (domain.AccountSummary, error) {
	var payload accountPayload
	if err := c.get(ctx, "/v2/account", &payload); err != nil {
		c.log.Warn().Err(err).Msg("Brokerage unreachable, returning disconnected summary")
		return domain.AccountSummary{IsConnected: false}, nil
	}

	return domain.AccountSummary{
		PortfolioValue: num(payload.PortfolioValue),
		DailyPnL:       num(payload.DailyPnL),
		BuyingPower:    num(payload.BuyingPower),
		IsConnected:    true,
	}, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.apiKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.apiSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("brokerage returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// num converts a json.Number to float64, treating malformed values as zero.
func num(n json.Number) float64 {
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}
