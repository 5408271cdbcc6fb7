package thesis

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/discovery"
	"github.com/scoutdash/scout/internal/modules/features"
)

// Evaluation is the outcome of checking a thesis against the latest stored
// features for its symbol.
type Evaluation struct {
	Symbol   string             `json:"symbol"`
	Score    float64            `json:"score"`
	Decision discovery.Decision `json:"decision"`
	Thesis   *domain.Thesis     `json:"thesis,omitempty"`
}

// Service evaluates theses against stored feature snapshots.
type Service struct {
	repo        *Repository
	featureRepo *features.Repository
	scorer      *discovery.Scorer
	classifier  *discovery.Classifier
	log         zerolog.Logger
}

// NewService creates a new thesis service
func NewService(
	repo *Repository,
	featureRepo *features.Repository,
	scorer *discovery.Scorer,
	classifier *discovery.Classifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		featureRepo: featureRepo,
		scorer:      scorer,
		classifier:  classifier,
		log:         log.With().Str("service", "thesis").Logger(),
	}
}

// Evaluate scores a snapshot for the symbol and classifies it under the
// symbol's thesis. A supplied snapshot is used as-is, so callers can test a
// hypothetical snapshot against the stored rules; with a nil snapshot the
// latest stored one is loaded instead. A missing thesis is fine, the decision
// is then a plain score-band classification. Having no snapshot at all is an
// error because there is nothing to decide on.
func (s *Service) Evaluate(symbol string, snap *domain.FeatureSnapshot) (*Evaluation, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !domain.ValidSymbol(symbol) {
		return nil, fmt.Errorf("invalid symbol %q", symbol)
	}

	if snap == nil {
		stored, err := s.featureRepo.GetLatest(symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest features: %w", err)
		}
		if stored == nil {
			return nil, fmt.Errorf("no feature snapshot stored for %s", symbol)
		}
		snap = stored
	}

	thesis, err := s.repo.Get(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load thesis: %w", err)
	}

	score, _ := s.scorer.Score(*snap)
	decision := s.classifier.Classify(score, thesis, snap)

	s.log.Debug().
		Str("symbol", symbol).
		Float64("score", score).
		Str("action", string(decision.Action)).
		Msg("Thesis evaluated")

	return &Evaluation{
		Symbol:   symbol,
		Score:    score,
		Decision: decision,
		Thesis:   thesis,
	}, nil
}
