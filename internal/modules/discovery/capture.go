package discovery

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/features"
)

// ErrAlreadyRunning is returned when a capture run is requested while one is
// in progress. The request is rejected immediately, never queued.
var ErrAlreadyRunning = errors.New("capture run already in progress")

// State of the capture service.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateFailed  State = "failed"
)

// ThesisProvider looks up the stored thesis for a symbol so the classifier
// can apply invalidation rules during capture. Nil result means no thesis.
type ThesisProvider interface {
	Get(symbol string) (*domain.Thesis, error)
}

// RunResult is the outcome of a single capture run.
type RunResult struct {
	SessionID string             `json:"session_id"`
	Kept      []domain.Discovery `json:"kept"`
	Stats     PipelineStats      `json:"stats"`
	Scanned   int                `json:"symbols_scanned"`
	Skipped   int                `json:"symbols_skipped"`
	Rejected  int                `json:"upserts_rejected"`
}

// Status is a snapshot of the capture service state for the status endpoint.
type Status struct {
	State       State      `json:"state"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	RunsStarted int        `json:"runs_started"`
	LastKept    int        `json:"last_kept"`
}

// CaptureService runs the discovery pipeline: fetch features for the tracked
// universe, score, classify, dedup, persist. A mutex-guarded state flag
// prevents overlapping runs; this is a single-process guard, not a
// distributed lock.
type CaptureService struct {
	universe    []string
	source      domain.FeatureSource
	featureRepo *features.Repository
	theses      ThesisProvider
	scorer      *Scorer
	classifier  *Classifier
	pipeline    *Pipeline
	repo        *Repository
	sessions    *SessionRepository
	cache       *batchCache
	log         zerolog.Logger

	mu          sync.Mutex
	state       State
	lastRun     *time.Time
	lastError   string
	runsStarted int
	lastKept    int
}

// NewCaptureService creates the capture service. The universe is normalized
// and sorted once so every run processes symbols in the same order.
func NewCaptureService(
	universe []string,
	source domain.FeatureSource,
	featureRepo *features.Repository,
	theses ThesisProvider,
	scorer *Scorer,
	classifier *Classifier,
	pipeline *Pipeline,
	repo *Repository,
	sessions *SessionRepository,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *CaptureService {
	normalized := make([]string, 0, len(universe))
	for _, s := range universe {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			normalized = append(normalized, s)
		}
	}
	sort.Strings(normalized)

	return &CaptureService{
		universe:    normalized,
		source:      source,
		featureRepo: featureRepo,
		theses:      theses,
		scorer:      scorer,
		classifier:  classifier,
		pipeline:    pipeline,
		repo:        repo,
		sessions:    sessions,
		cache:       newBatchCache(cacheTTL),
		log:         log.With().Str("service", "capture").Logger(),
		state:       StateIdle,
	}
}

// TriggerRun executes one capture run synchronously. A second request while
// one is running gets ErrAlreadyRunning without starting anything.
func (s *CaptureService) TriggerRun(ctx context.Context) (*RunResult, error) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.state = StateRunning
	s.runsStarted++
	s.mu.Unlock()

	result, err := s.run(ctx)

	s.mu.Lock()
	now := time.Now().UTC()
	s.lastRun = &now
	if err != nil {
		s.state = StateFailed
		s.lastError = err.Error()
	} else {
		s.state = StateIdle
		s.lastError = ""
		s.lastKept = len(result.Kept)
	}
	s.mu.Unlock()

	return result, err
}

// run is the actual capture sequence. Per-symbol failures are logged and
// skipped; only a whole-batch failure (every fetch failing) aborts the run.
func (s *CaptureService) run(ctx context.Context) (*RunResult, error) {
	sessionID := uuid.New().String()
	runAt := time.Now().UTC().Truncate(time.Second)

	if err := s.sessions.Start(sessionID, runAt); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record scan session start")
	}

	s.log.Info().Str("session", sessionID).Int("universe", len(s.universe)).Msg("Capture run started")

	weights := s.scorer.CurrentWeights()

	var (
		scored     []domain.Discovery
		fetchFails int
		skipped    int
	)

	for _, symbol := range s.universe {
		snap, err := s.source.GetLatestFeatures(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Feature fetch failed, skipping symbol")
			fetchFails++
			skipped++
			continue
		}
		if snap == nil {
			skipped++
			continue
		}

		if err := s.featureRepo.Insert(*snap); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist snapshot")
		}

		score, components := ScoreWithWeights(*snap, weights)

		var thesis *domain.Thesis
		if s.theses != nil {
			if t, err := s.theses.Get(symbol); err == nil {
				thesis = t
			}
		}
		decision := s.classifier.Classify(score, thesis, snap)

		scored = append(scored, domain.Discovery{
			Symbol:     symbol,
			AsOf:       runAt,
			Price:      snap.LastPrice,
			Score:      score,
			RelVolume:  snap.RelVolume,
			Action:     decision.Action,
			Components: components,
		})
	}

	if len(s.universe) > 0 && fetchFails == len(s.universe) {
		err := errors.New("feature source unreachable for entire universe")
		if ferr := s.sessions.Fail(sessionID, err.Error()); ferr != nil {
			s.log.Warn().Err(ferr).Msg("Failed to record scan session failure")
		}
		return &RunResult{SessionID: sessionID, Skipped: skipped}, err
	}

	kept, stats := s.pipeline.Process(scored)

	persisted := make([]domain.Discovery, 0, len(kept))
	rejected := 0
	for _, d := range kept {
		res, err := s.repo.Upsert(d)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", d.Symbol).Msg("Upsert failed")
			rejected++
			continue
		}
		if !res.OK {
			s.log.Warn().Str("symbol", d.Symbol).Str("reason", res.Reason).Msg("Upsert rejected")
			rejected++
			continue
		}
		persisted = append(persisted, d)
	}

	s.cache.Set(persisted)

	if err := s.sessions.Complete(sessionID, len(s.universe), len(persisted)); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record scan session completion")
	}

	s.log.Info().
		Str("session", sessionID).
		Int("scored", len(scored)).
		Int("kept", len(persisted)).
		Int("rejected", rejected).
		Msg("Capture run completed")

	return &RunResult{
		SessionID: sessionID,
		Kept:      persisted,
		Stats:     stats,
		Scanned:   len(s.universe),
		Skipped:   skipped,
		Rejected:  rejected,
	}, nil
}

// CachedBatch returns the last persisted batch while its TTL holds.
func (s *CaptureService) CachedBatch() ([]domain.Discovery, bool) {
	return s.cache.Get()
}

// Status reports the current capture state.
func (s *CaptureService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		LastRun:     s.lastRun,
		LastError:   s.lastError,
		RunsStarted: s.runsStarted,
		LastKept:    s.lastKept,
	}
}
