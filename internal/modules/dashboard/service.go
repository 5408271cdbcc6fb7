// Package dashboard assembles the single combined view the front end polls:
// portfolio, top discoveries, alerts and the latest scan session.
package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/alerts"
	"github.com/scoutdash/scout/internal/modules/discovery"
	"github.com/scoutdash/scout/internal/modules/portfolio"
)

const defaultDiscoveryLimit = 10

// View is the combined dashboard payload.
type View struct {
	Portfolio   *portfolio.Snapshot    `json:"portfolio"`
	Discoveries []domain.Discovery     `json:"discoveries"`
	Alerts      []domain.Alert         `json:"alerts"`
	LastScan    *discovery.ScanSession `json:"last_scan,omitempty"`
	Capture     discovery.Status       `json:"capture"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Service aggregates the module services into one view.
type Service struct {
	portfolio *portfolio.Service
	capture   *discovery.CaptureService
	repo      *discovery.Repository
	sessions  *discovery.SessionRepository
	alerts    *alerts.Generator
	log       zerolog.Logger
}

// NewService creates a new dashboard service
func NewService(
	portfolioSvc *portfolio.Service,
	capture *discovery.CaptureService,
	repo *discovery.Repository,
	sessions *discovery.SessionRepository,
	alertGen *alerts.Generator,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolio: portfolioSvc,
		capture:   capture,
		repo:      repo,
		sessions:  sessions,
		alerts:    alertGen,
		log:       log.With().Str("service", "dashboard").Logger(),
	}
}

// GetView builds the combined dashboard view. Each section degrades
// independently: a failing discovery query yields an empty list, not a
// failed dashboard.
func (s *Service) GetView(ctx context.Context) (*View, error) {
	snapshot, err := s.portfolio.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	discoveries, ok := s.capture.CachedBatch()
	if !ok {
		discoveries, err = s.repo.QueryRecent(defaultDiscoveryLimit, 0)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to query discoveries for dashboard")
			discoveries = nil
		}
	}
	if len(discoveries) > defaultDiscoveryLimit {
		discoveries = discoveries[:defaultDiscoveryLimit]
	}
	if discoveries == nil {
		discoveries = []domain.Discovery{}
	}

	lastScan, err := s.sessions.Latest()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to query latest scan session")
	}

	generated := s.alerts.Generate(snapshot.Summary, snapshot.Positions, discoveries)

	return &View{
		Portfolio:   snapshot,
		Discoveries: discoveries,
		Alerts:      generated,
		LastScan:    lastScan,
		Capture:     s.capture.Status(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}
