package agent

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/askimmigrate/askimmigrate/src/session"
	"github.com/askimmigrate/askimmigrate/src/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSetup(t *testing.T) (*session.Manager, *Fallback) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m := session.NewManager(db, session.ManagerConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return m, NewFallback(m)
}

func TestFallbackDirectRecallIsVerbatim(t *testing.T) {
	m, fallback := newTestSetup(t)
	ctx := context.Background()

	_, err := m.CreateInitialState(ctx, "recall", "What is an F-1 visa?")
	require.NoError(t, err)
	_, err = m.SaveConversationResult(ctx, "recall",
		"What is an F-1 visa?", "A nonimmigrant student visa.", session.TurnMetadata{})
	require.NoError(t, err)

	state, err := m.CreateInitialState(ctx, "recall", "What was my first question?")
	require.NoError(t, err)
	require.True(t, state.IsDirectRecall)

	answer, err := fallback.Answer(ctx, "What was my first question?", state)
	require.NoError(t, err)

	// The literal first question, not a synthesized answer.
	assert.Contains(t, answer.Text, `"What is an F-1 visa?"`)
	assert.Equal(t, []string{"session_recall"}, answer.ToolsUsed)
}

func TestFallbackFreshQuestionPointsToResources(t *testing.T) {
	m, fallback := newTestSetup(t)
	ctx := context.Background()

	state, err := m.CreateInitialState(ctx, "", "How do I apply for OPT?")
	require.NoError(t, err)

	answer, err := fallback.Answer(ctx, "How do I apply for OPT?", state)
	require.NoError(t, err)
	assert.Contains(t, answer.Text, "https://www.uscis.gov")
	assert.Equal(t, []string{"fallback_responder"}, answer.ToolsUsed)
}

func TestPromptContext(t *testing.T) {
	state := &session.InitialState{
		SessionID:  "ctx-test",
		IsFollowup: true,
		ConversationHistory: []storage.ConversationTurn{
			{TurnNumber: 1, Question: "What is an F-1 visa?", Answer: "A student visa."},
		},
		Context: storage.SessionContext{
			VisaTypesMentioned: []string{"F-1"},
			OngoingTopics:      []string{"work authorization"},
			UserSituation:      "student",
		},
	}

	block := PromptContext(state, "How do I extend it?")
	assert.Contains(t, block, "FOLLOW-UP DETECTED")
	assert.Contains(t, block, "What is an F-1 visa?")
	assert.Contains(t, block, "Visa types mentioned: F-1")
	assert.Contains(t, block, "User situation: student")

	t.Run("empty unless follow-up", func(t *testing.T) {
		fresh := &session.InitialState{SessionID: "x"}
		assert.Empty(t, PromptContext(fresh, "What is an H-1B?"))
	})
}
