package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/discovery"
	"github.com/scoutdash/scout/internal/modules/features"
	"github.com/scoutdash/scout/internal/modules/thesis"
	"github.com/scoutdash/scout/pkg/logger"
)

func newTestRouter(t *testing.T) (chi.Router, *features.Repository) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	log := logger.New(logger.Config{Level: "error", Pretty: false})

	repo := thesis.NewRepository(db.Conn(), log)
	featureRepo := features.NewRepository(db.Conn(), log)
	svc := thesis.NewService(
		repo,
		featureRepo,
		discovery.NewScorer(nil, log),
		discovery.NewClassifier(config.ClassifierConfig{Buy: 7.0, Monitor: 2.0, Watchlist: 1.0}),
		log,
	)

	r := chi.NewRouter()
	NewHandler(repo, svc, log).RegisterRoutes(r)
	return r, featureRepo
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func putThesis(t *testing.T, router chi.Router, symbol, body string) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/thesis/"+symbol, strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleDecide_SuppliedFeaturesFireRule(t *testing.T) {
	router, _ := newTestRouter(t)

	putThesis(t, router, "ABC", `{
		"hypothesis": "short squeeze forming",
		"rules": [{"name": "momentum_reversal", "feature": "momentum_5d", "op": "<", "value": 0}]
	}`)

	// Hypothetical snapshot in the body, nothing stored for the symbol.
	body := `{"symbol": "ABC", "rel_volume": 3.0, "short_interest_pct": 30, "momentum_5d": -4.0}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thesis/ABC/decide", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var eval thesis.Evaluation
	require.NoError(t, json.Unmarshal(env.Data, &eval))
	assert.Equal(t, domain.ActionExit, eval.Decision.Action)
	assert.Equal(t, "momentum_reversal", eval.Decision.InvalidatedBy)
}

func TestHandleDecide_EmptyBodyUsesStoredSnapshot(t *testing.T) {
	router, featureRepo := newTestRouter(t)

	require.NoError(t, featureRepo.Insert(domain.FeatureSnapshot{
		Symbol:               "ABC",
		AsOf:                 time.Now().UTC(),
		RelVolume:            3.0,
		ShortInterestPct:     30,
		BorrowFee7dChangePct: 10,
		Momentum5d:           50,
		Catalyst:             true,
		LastPrice:            12.34,
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thesis/ABC/decide", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success)

	var eval thesis.Evaluation
	require.NoError(t, json.Unmarshal(env.Data, &eval))
	assert.Equal(t, domain.ActionBuy, eval.Decision.Action)
	assert.Greater(t, eval.Score, 7.0)
}

func TestHandleDecide_BadBodyAndMissingSnapshot(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thesis/ABC/decide", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// No body and nothing stored leaves nothing to decide on.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/thesis/ABC/decide", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}
