package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/discovery"
	featuresrepo "github.com/scoutdash/scout/internal/modules/features"
	"github.com/scoutdash/scout/pkg/logger"
)

type staticSource struct {
	snapshots map[string]*domain.FeatureSnapshot
}

func (s *staticSource) GetLatestFeatures(_ context.Context, symbol string) (*domain.FeatureSnapshot, error) {
	return s.snapshots[symbol], nil
}

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	return newRouterForSnapshots(t, map[string]*domain.FeatureSnapshot{
		"ABC": {
			Symbol:               "ABC",
			AsOf:                 time.Now().UTC(),
			RelVolume:            3.0,
			ShortInterestPct:     30,
			BorrowFee7dChangePct: 10,
			Momentum5d:           50,
			Catalyst:             true,
			LastPrice:            12.34,
		},
	})
}

func newRouterForSnapshots(t *testing.T, snapshots map[string]*domain.FeatureSnapshot) chi.Router {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})

	source := &staticSource{snapshots: snapshots}
	universe := make([]string, 0, len(snapshots))
	for symbol := range snapshots {
		universe = append(universe, symbol)
	}

	pipelineCfg := config.DiscoveryConfig{
		MinPrice: 0.10, MaxPrice: 100, MinScore: 2.0, MinRelVolume: 1.5,
		SentinelPrices: []float64{50.0},
		ScoreDiffThreshold: 0.05, MinVolumeSim: 0.95, MinMomentumSim: 0.95,
		DedupBySymbol: true, NearDupFilter: true, QualityFilter: true,
	}

	repo := discovery.NewRepository(db.Conn(), 500, 24, log)
	capture := discovery.NewCaptureService(
		universe,
		source,
		featuresrepo.NewRepository(db.Conn(), log),
		nil,
		discovery.NewScorer(nil, log),
		discovery.NewClassifier(config.ClassifierConfig{Buy: 7.0, Monitor: 2.0, Watchlist: 1.0}),
		discovery.NewPipeline(pipelineCfg, log),
		repo,
		discovery.NewSessionRepository(db.Conn(), log),
		2*time.Minute,
		log,
	)

	r := chi.NewRouter()
	NewHandler(capture, repo, log).RegisterRoutes(r)
	return r
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func TestHandleScanThenGetTop(t *testing.T) {
	router := newTestRouter(t)

	// Trigger a scan.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discoveries/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	// Top now serves the cached batch.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/top?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var payload struct {
		Discoveries []domain.Discovery `json:"discoveries"`
		Cached      bool               `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.True(t, payload.Cached)
	require.Len(t, payload.Discoveries, 1)
	assert.Equal(t, "ABC", payload.Discoveries[0].Symbol)
	assert.Equal(t, domain.ActionBuy, payload.Discoveries[0].Action)
}

func TestHandleGetTop_CachedBatchRankedByScore(t *testing.T) {
	// AAA scans first but scores low; the cached batch must still serve
	// ZZZ at the top.
	router := newRouterForSnapshots(t, map[string]*domain.FeatureSnapshot{
		"AAA": {
			Symbol:           "AAA",
			AsOf:             time.Now().UTC(),
			RelVolume:        2.0,
			ShortInterestPct: 15,
			Momentum5d:       5,
			LastPrice:        8.00,
		},
		"ZZZ": {
			Symbol:               "ZZZ",
			AsOf:                 time.Now().UTC(),
			RelVolume:            4.0,
			ShortInterestPct:     30,
			BorrowFee7dChangePct: 10,
			Momentum5d:           50,
			Catalyst:             true,
			LastPrice:            20.00,
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discoveries/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/top?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var payload struct {
		Discoveries []domain.Discovery `json:"discoveries"`
		Cached      bool               `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.True(t, payload.Cached)
	require.Len(t, payload.Discoveries, 1)
	assert.Equal(t, "ZZZ", payload.Discoveries[0].Symbol)

	// The full cached batch comes back score descending.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/top?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.Len(t, payload.Discoveries, 2)
	assert.Equal(t, "ZZZ", payload.Discoveries[0].Symbol)
	assert.Equal(t, "AAA", payload.Discoveries[1].Symbol)
	assert.Greater(t, payload.Discoveries[0].Score, payload.Discoveries[1].Score)
}

func TestHandleGetTop_MinScoreFilter(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discoveries/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/top?minScore=9.5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	var payload struct {
		Discoveries []domain.Discovery `json:"discoveries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Empty(t, payload.Discoveries)
}

func TestHandleGetByAction(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discoveries/scan", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/actions/buy", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)

	// Unknown actions are rejected before touching the repository.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/discoveries/actions/yolo", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}
