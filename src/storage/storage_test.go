package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"sessions", "conversation_turns", "schema_migrations"} {
		var name string
		err := db.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	// Reopening must not reapply the migration.
	db2, err := Open(db.Path())
	require.NoError(t, err)
	defer db2.Close()
}

func TestAppendTurnOrdering(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	s := &Session{SessionID: "ordering-test"}
	require.NoError(t, CreateSession(ctx, db.DB(), s))

	for i := 1; i <= 3; i++ {
		err := AppendTurn(ctx, db.DB(), &ConversationTurn{
			SessionID:  "ordering-test",
			TurnNumber: i,
			Question:   "question",
			Answer:     "answer",
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		turnNumber int
	}{
		{"duplicate turn number", 3},
		{"gap in sequence", 5},
		{"zero turn number", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AppendTurn(ctx, db.DB(), &ConversationTurn{
				SessionID:  "ordering-test",
				TurnNumber: tt.turnNumber,
				Question:   "q",
				Answer:     "a",
			})
			assert.ErrorIs(t, err, ErrTurnOutOfOrder)
		})
	}

	max, err := MaxTurnNumber(ctx, db.DB(), "ordering-test")
	require.NoError(t, err)
	assert.Equal(t, 3, max)
}

func TestListTurns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateSession(ctx, db.DB(), &Session{SessionID: "list-test"}))
	questions := []string{"first", "second", "third", "fourth"}
	for i, q := range questions {
		require.NoError(t, AppendTurn(ctx, db.DB(), &ConversationTurn{
			SessionID:  "list-test",
			TurnNumber: i + 1,
			Question:   q,
			Answer:     "answer " + q,
			VisaFocus:  JSONStringArray{"F-1"},
			ToolsUsed:  JSONStringArray{"rag_retrieval"},
		}))
	}

	t.Run("all turns ascending", func(t *testing.T) {
		turns, err := ListTurns(ctx, db.DB(), "list-test", 0)
		require.NoError(t, err)
		require.Len(t, turns, 4)
		for i, turn := range turns {
			assert.Equal(t, i+1, turn.TurnNumber)
		}
		assert.Equal(t, JSONStringArray{"F-1"}, turns[0].VisaFocus)
		assert.Equal(t, JSONStringArray{"rag_retrieval"}, turns[0].ToolsUsed)
	})

	t.Run("limit keeps most recent", func(t *testing.T) {
		turns, err := ListTurns(ctx, db.DB(), "list-test", 2)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, "third", turns[0].Question)
		assert.Equal(t, "fourth", turns[1].Question)
	})

	t.Run("unknown session yields empty, not error", func(t *testing.T) {
		turns, err := ListTurns(ctx, db.DB(), "no-such-session", 0)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}

func TestFirstAndLastTurn(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := FirstTurn(ctx, db.DB(), "empty-session")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, CreateSession(ctx, db.DB(), &Session{SessionID: "fl-test"}))
	for i, q := range []string{"opening question", "closing question"} {
		require.NoError(t, AppendTurn(ctx, db.DB(), &ConversationTurn{
			SessionID: "fl-test", TurnNumber: i + 1, Question: q, Answer: "a",
		}))
	}

	first, err := FirstTurn(ctx, db.DB(), "fl-test")
	require.NoError(t, err)
	assert.Equal(t, "opening question", first.Question)

	last, err := LastTurn(ctx, db.DB(), "fl-test")
	require.NoError(t, err)
	assert.Equal(t, "closing question", last.Question)
}

func TestGetOrCreateSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	t.Run("creates with supplied id", func(t *testing.T) {
		s, created, err := GetOrCreateSession(ctx, db.DB(), "my-session", "")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "my-session", s.SessionID)
		assert.Equal(t, 0, s.TurnCount)
		assert.False(t, s.Context.HasSignals())
	})

	t.Run("returns existing", func(t *testing.T) {
		s, created, err := GetOrCreateSession(ctx, db.DB(), "my-session", "")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "my-session", s.SessionID)
	})

	t.Run("trims whitespace in id", func(t *testing.T) {
		s, created, err := GetOrCreateSession(ctx, db.DB(), "  my-session \n", "")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "my-session", s.SessionID)
	})

	t.Run("generates slug id from seed question", func(t *testing.T) {
		s, created, err := GetOrCreateSession(ctx, db.DB(), "", "What is an F-1 visa?")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEmpty(t, s.SessionID)
		assert.Contains(t, s.SessionID, "what-is-an-f-1")
	})
}

func TestGeneratedIDsDoNotCollide(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Near-duplicate seeds exercise the suffix, not the slug.
	seeds := []string{
		"What is an F-1 visa?",
		"What is an F-1 visa",
		"what is an f-1 visa!!",
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s, created, err := GetOrCreateSession(ctx, db.DB(), "", seeds[i%len(seeds)])
		require.NoError(t, err)
		require.True(t, created)
		require.False(t, seen[s.SessionID], "generated id %q collided", s.SessionID)
		seen[s.SessionID] = true
	}
}

func TestUpdateSession(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, CreateSession(ctx, db.DB(), &Session{SessionID: "upd-test"}))

	newCtx := SessionContext{
		VisaTypesMentioned: []string{"F-1"},
		OngoingTopics:      []string{"work authorization"},
		UserSituation:      "student",
	}
	require.NoError(t, UpdateSession(ctx, db.DB(), "upd-test", 1, newCtx))

	s, err := GetSession(ctx, db.DB(), "upd-test")
	require.NoError(t, err)
	assert.Equal(t, 1, s.TurnCount)
	assert.Equal(t, newCtx, s.Context)

	t.Run("stale turn_count is rejected", func(t *testing.T) {
		// Prior count is 1 now; claiming another transition from 0 must fail.
		err := UpdateSession(ctx, db.DB(), "upd-test", 1, newCtx)
		assert.ErrorIs(t, err, ErrTurnOutOfOrder)
	})

	t.Run("unknown session", func(t *testing.T) {
		err := UpdateSession(ctx, db.DB(), "missing", 1, SessionContext{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListSessionsOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	old := &Session{
		SessionID: "older",
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		UpdatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	require.NoError(t, CreateSession(ctx, db.DB(), old))
	require.NoError(t, CreateSession(ctx, db.DB(), &Session{SessionID: "newer"}))

	sessions, err := ListSessions(ctx, db.DB())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].SessionID)
	assert.Equal(t, "older", sessions[1].SessionID)
}

func TestPurgeSessionsOlderThan(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	stale := &Session{
		SessionID: "stale",
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
		UpdatedAt: time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, CreateSession(ctx, db.DB(), stale))
	require.NoError(t, AppendTurn(ctx, db.DB(), &ConversationTurn{
		SessionID: "stale", TurnNumber: 1, Question: "q", Answer: "a",
	}))
	require.NoError(t, CreateSession(ctx, db.DB(), &Session{SessionID: "fresh"}))

	removed, err := PurgeSessionsOlderThan(ctx, db.DB(), time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = GetSession(ctx, db.DB(), "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	turns, err := ListTurns(ctx, db.DB(), "stale", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = GetSession(ctx, db.DB(), "fresh")
	assert.NoError(t, err)
}
