// Package features implements the feature source collaborator client.
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

const requestTimeout = 10 * time.Second

// Client fetches the latest feature snapshot per symbol from the feature
// service.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new feature service client
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: requestTimeout,
		},
		log: log.With().Str("client", "features").Logger(),
	}
}

// snapshotPayload is the wire format for a feature snapshot. Absent fields
// decode to zero and contribute nothing to the score.
type snapshotPayload struct {
	Symbol               string   `json:"symbol"`
	AsOf                 int64    `json:"as_of"`
	RelVolume            float64  `json:"rel_volume"`
	ShortInterestPct     float64  `json:"short_interest_pct"`
	BorrowFee7dChangePct float64  `json:"borrow_fee_7d_change_pct"`
	Momentum5d           float64  `json:"momentum_5d"`
	Catalyst             bool     `json:"catalyst"`
	FloatShares          *float64 `json:"float_shares"`
	LastPrice            float64  `json:"last_price"`
}

// GetLatestFeatures returns the most recent snapshot for the symbol, or nil
// when the source has none (HTTP 404).
func (c *Client) GetLatestFeatures(ctx context.Context, symbol string) (*domain.FeatureSnapshot, error) {
	endpoint := c.baseURL + "/features/latest?symbol=" + url.QueryEscape(symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch features for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feature service returned %d: %s", resp.StatusCode, string(body))
	}

	var payload snapshotPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse features for %s: %w", symbol, err)
	}

	asOf := time.Unix(payload.AsOf, 0).UTC()
	if payload.AsOf == 0 {
		asOf = time.Now().UTC()
	}

	return &domain.FeatureSnapshot{
		Symbol:               payload.Symbol,
		AsOf:                 asOf,
		RelVolume:            payload.RelVolume,
		ShortInterestPct:     payload.ShortInterestPct,
		BorrowFee7dChangePct: payload.BorrowFee7dChangePct,
		Momentum5d:           payload.Momentum5d,
		Catalyst:             payload.Catalyst,
		FloatShares:          payload.FloatShares,
		LastPrice:            payload.LastPrice,
	}, nil
}
