package portfolio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
)

// Snapshot is the aggregated portfolio view served to clients.
type Snapshot struct {
	Summary   domain.AccountSummary `json:"summary"`
	Positions []domain.Position     `json:"positions"`
}

// Service fetches brokerage state and annotates each position with derived
// risk analytics.
type Service struct {
	broker domain.BrokerClient
	log    zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(broker domain.BrokerClient, log zerolog.Logger) *Service {
	return &Service{
		broker: broker,
		log:    log.With().Str("service", "portfolio").Logger(),
	}
}

// GetSnapshot returns the account summary plus annotated positions. The
// broker client degrades to zeroed results with IsConnected=false rather than
// failing, so errors here are reserved for genuine programming faults.
func (s *Service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	summary, err := s.broker.GetAccountSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch account summary: %w", err)
	}

	positions, err := s.broker.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	for i := range positions {
		s.annotate(&positions[i], summary.PortfolioValue)
	}

	s.log.Debug().
		Int("positions", len(positions)).
		Bool("connected", summary.IsConnected).
		Msg("Portfolio snapshot assembled")

	return &Snapshot{Summary: summary, Positions: positions}, nil
}

// annotate fills in the derived fields on a position.
func (s *Service) annotate(p *domain.Position, portfolioValue float64) {
	p.RiskScore = RiskScore(p.UnrealizedPnLPct, p.MarketValue, portfolioValue)
	p.RecommendedAction = RecommendedAction(p.RiskScore, p.UnrealizedPnLPct)

	weight := 0.0
	if portfolioValue > 0 {
		weight = p.MarketValue / portfolioValue
	}
	p.Thesis = Narrative(narrativeInput{
		Symbol:           p.Symbol,
		UnrealizedPnLPct: p.UnrealizedPnLPct,
		Weight:           weight,
		RiskScore:        p.RiskScore,
		Action:           p.RecommendedAction,
	})
}
