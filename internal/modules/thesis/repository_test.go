package thesis

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/pkg/logger"
)

func testLog() zerolog.Logger {
	return logger.New(logger.Config{Level: "error", Pretty: false})
}

func testThesisRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), testLog()), db
}

func TestRepository_GetMissingReturnsNil(t *testing.T) {
	repo, _ := testThesisRepo(t)

	got, err := repo.Get("ABC")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_UpsertValidation(t *testing.T) {
	repo, _ := testThesisRepo(t)

	_, err := repo.Upsert("not a symbol", "squeeze setup", nil)
	assert.Error(t, err)

	_, err = repo.Upsert("ABC", "   ", nil)
	assert.Error(t, err)
}

func TestRepository_VersioningArchivesPriorRows(t *testing.T) {
	repo, _ := testThesisRepo(t)

	rules := []domain.InvalidationRule{
		{Name: "momentum_reversal", Feature: "momentum_5d", Op: "<", Value: 0},
	}

	v1, err := repo.Upsert("abc", "short squeeze forming", rules)
	require.NoError(t, err)
	assert.Equal(t, "ABC", v1.Symbol)
	assert.Equal(t, 1, v1.Version)

	v2, err := repo.Upsert("ABC", "squeeze confirmed, catalyst landed", rules)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, "squeeze confirmed, catalyst landed", v2.Hypothesis)

	live, err := repo.Get("ABC")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, 2, live.Version)
	require.Len(t, live.Rules, 1)
	assert.Equal(t, "momentum_reversal", live.Rules[0].Name)

	history, err := repo.History("ABC")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, "short squeeze forming", history[0].Hypothesis)
}

func TestRepository_HistoryNewestFirst(t *testing.T) {
	repo, _ := testThesisRepo(t)

	for _, hypothesis := range []string{"first", "second", "third"} {
		_, err := repo.Upsert("ABC", hypothesis, nil)
		require.NoError(t, err)
	}

	history, err := repo.History("ABC")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Version)
	assert.Equal(t, "second", history[0].Hypothesis)
	assert.Equal(t, 1, history[1].Version)
}
