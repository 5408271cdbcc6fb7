package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	featuresrepo "github.com/scoutdash/scout/internal/modules/features"
)

// stubSource serves canned snapshots and can be made to block or fail.
type stubSource struct {
	snapshots map[string]*domain.FeatureSnapshot
	err       error
	block     chan struct{} // when set, every fetch waits until closed
	started   chan struct{} // signalled once the first fetch begins
}

func (s *stubSource) GetLatestFeatures(ctx context.Context, symbol string) (*domain.FeatureSnapshot, error) {
	if s.started != nil {
		select {
		case s.started <- struct{}{}:
		default:
		}
	}
	if s.block != nil {
		<-s.block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshots[symbol], nil
}

func squeezeSnapshot(symbol string) *domain.FeatureSnapshot {
	return &domain.FeatureSnapshot{
		Symbol:               symbol,
		AsOf:                 time.Now().UTC(),
		RelVolume:            3.0,
		ShortInterestPct:     30,
		BorrowFee7dChangePct: 10,
		Momentum5d:           50,
		Catalyst:             true,
		LastPrice:            12.34,
	}
}

func newTestCapture(t *testing.T, universe []string, source domain.FeatureSource) (*CaptureService, *Repository) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := testLog()
	featureRepo := featuresrepo.NewRepository(db.Conn(), log)
	scorer := NewScorer(NewWeightsRepository(db.Conn(), log), log)
	classifier := NewClassifier(testBands())
	pipeline := NewPipeline(testPipelineConfig(), log)
	repo := NewRepository(db.Conn(), 500, 24, log)
	sessions := NewSessionRepository(db.Conn(), log)

	capture := NewCaptureService(
		universe, source, featureRepo, nil,
		scorer, classifier, pipeline, repo, sessions,
		2*time.Minute, log,
	)
	return capture, repo
}

func TestCaptureService_EndToEnd(t *testing.T) {
	source := &stubSource{snapshots: map[string]*domain.FeatureSnapshot{
		"ABC": squeezeSnapshot("ABC"),
	}}
	capture, repo := newTestCapture(t, []string{"abc"}, source)

	result, err := capture.TriggerRun(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Kept, 1)
	kept := result.Kept[0]
	assert.Equal(t, "ABC", kept.Symbol)
	assert.Greater(t, kept.Score, 7.0)
	assert.Equal(t, domain.ActionBuy, kept.Action)
	assert.Equal(t, 12.34, kept.Price)

	buys, err := repo.QueryByAction(domain.ActionBuy)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Equal(t, "ABC", buys[0].Symbol)

	cached, ok := capture.CachedBatch()
	assert.True(t, ok)
	assert.Len(t, cached, 1)

	status := capture.Status()
	assert.Equal(t, StateIdle, status.State)
	assert.Equal(t, 1, status.LastKept)
	require.NotNil(t, status.LastRun)
}

func TestCaptureService_MutualExclusion(t *testing.T) {
	source := &stubSource{
		snapshots: map[string]*domain.FeatureSnapshot{"ABC": squeezeSnapshot("ABC")},
		block:     make(chan struct{}),
		started:   make(chan struct{}, 1),
	}
	capture, _ := newTestCapture(t, []string{"ABC"}, source)

	done := make(chan error, 1)
	go func() {
		_, err := capture.TriggerRun(context.Background())
		done <- err
	}()

	// Wait until the run is inside the feature fetch.
	select {
	case <-source.started:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started fetching")
	}

	_, err := capture.TriggerRun(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, StateRunning, capture.Status().State)

	close(source.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, capture.Status().State)

	// A new run is accepted once the first finished.
	_, err = capture.TriggerRun(context.Background())
	assert.NoError(t, err)
}

func TestCaptureService_WholeBatchFetchFailure(t *testing.T) {
	source := &stubSource{err: errors.New("upstream down")}
	capture, _ := newTestCapture(t, []string{"ABC", "DEF"}, source)

	result, err := capture.TriggerRun(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, result.Skipped)

	status := capture.Status()
	assert.Equal(t, StateFailed, status.State)
	assert.NotEmpty(t, status.LastError)

	// The failed flag does not wedge the service.
	source.err = nil
	source.snapshots = map[string]*domain.FeatureSnapshot{
		"ABC": squeezeSnapshot("ABC"),
		"DEF": squeezeSnapshot("DEF"),
	}
	_, err = capture.TriggerRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, capture.Status().State)
}

func TestCaptureService_PerSymbolFailureSkips(t *testing.T) {
	source := &stubSource{snapshots: map[string]*domain.FeatureSnapshot{
		"ABC": squeezeSnapshot("ABC"),
		// DEF has no snapshot: source returns nil, nil.
	}}
	capture, _ := newTestCapture(t, []string{"ABC", "DEF"}, source)

	result, err := capture.TriggerRun(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Kept, 1)
}

func TestBatchCache_TTLExpiry(t *testing.T) {
	c := newBatchCache(50 * time.Millisecond)

	c.Set([]domain.Discovery{{Symbol: "ABC"}})
	batch, ok := c.Get()
	require.True(t, ok)
	assert.Len(t, batch, 1)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get()
	assert.False(t, ok)

	c.Set([]domain.Discovery{{Symbol: "ABC"}})
	c.Invalidate()
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestBatchCache_SetRanksByScore(t *testing.T) {
	c := newBatchCache(time.Minute)

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	c.Set([]domain.Discovery{
		{Symbol: "AAA", Score: 3.5, AsOf: older},
		{Symbol: "MMM", Score: 6.0, AsOf: older},
		{Symbol: "NNN", Score: 6.0, AsOf: newer},
		{Symbol: "ZZZ", Score: 9.0, AsOf: older},
	})

	batch, ok := c.Get()
	require.True(t, ok)
	require.Len(t, batch, 4)

	symbols := make([]string, len(batch))
	for i, d := range batch {
		symbols[i] = d.Symbol
	}
	// Score descending, newer first on score ties.
	assert.Equal(t, []string{"ZZZ", "NNN", "MMM", "AAA"}, symbols)
}
