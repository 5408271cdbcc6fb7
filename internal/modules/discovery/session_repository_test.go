package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdash/scout/internal/database"
)

func testSessions(t *testing.T) *SessionRepository {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewSessionRepository(db.Conn(), testLog())
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	sessions := testSessions(t)

	require.NoError(t, sessions.Start("s1", time.Now().UTC()))

	latest, err := sessions.Latest()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "s1", latest.ID)
	assert.Equal(t, SessionRunning, latest.Status)

	require.NoError(t, sessions.Complete("s1", 12, 4))

	latest, err = sessions.Latest()
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, latest.Status)
	assert.Equal(t, 12, latest.SymbolsScanned)
	assert.Equal(t, 4, latest.DiscoveriesKept)
	require.NotNil(t, latest.CompletedAt)
}

func TestSessionRepository_FailureRecordsReason(t *testing.T) {
	sessions := testSessions(t)

	require.NoError(t, sessions.Start("s1", time.Now().UTC()))
	require.NoError(t, sessions.Fail("s1", "feature source unreachable"))

	latest, err := sessions.Latest()
	require.NoError(t, err)
	assert.Equal(t, SessionFailed, latest.Status)
	assert.Equal(t, "feature source unreachable", latest.Error)
}

func TestSessionRepository_LatestEmptyReturnsNil(t *testing.T) {
	sessions := testSessions(t)

	latest, err := sessions.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}
