package session

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/askimmigrate/askimmigrate/src/storage"
)

// DefaultHistoryWindow bounds the recent turns handed to the agent layer.
const DefaultHistoryWindow = 10

// ManagerConfig configures a Manager. Zero values take defaults.
type ManagerConfig struct {
	HistoryWindow int
	MaxTopics     int
	MaxVisaTypes  int
	Logger        *slog.Logger
}

// Manager is the composition root of the session core and the only type
// the agent layer, CLI and API talk to. It owns no global state; the
// database handle and heuristics are injected at construction.
type Manager struct {
	db            *storage.DB
	extractor     *Extractor
	detector      *Detector
	historyWindow int
	logger        *slog.Logger
}

func NewManager(db *storage.DB, cfg ManagerConfig) *Manager {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		db:            db,
		extractor:     NewExtractor(cfg.MaxTopics, cfg.MaxVisaTypes),
		detector:      NewDetector(),
		historyWindow: cfg.HistoryWindow,
		logger:        logger,
	}
}

// Extractor exposes the manager's extractor for replaying histories.
func (m *Manager) Extractor() *Extractor {
	return m.extractor
}

// CreateInitialState loads (or creates) the session for a new question
// and assembles everything the agent layer needs before answering.
// History and the turn number to assign come from the turn log; the
// registry's cached turn_count is never trusted for either.
func (m *Manager) CreateInitialState(ctx context.Context, sessionID, question string) (*InitialState, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	sess, created, err := storage.GetOrCreateSession(ctx, m.db.DB(), sessionID, question)
	if err != nil {
		return nil, err
	}

	history, err := storage.ListTurns(ctx, m.db.DB(), sess.SessionID, m.historyWindow)
	if err != nil {
		return nil, err
	}

	maxTurn, err := storage.MaxTurnNumber(ctx, m.db.DB(), sess.SessionID)
	if err != nil {
		return nil, err
	}

	sessionContext := sess.Context
	if sess.TurnCount != maxTurn {
		// The cache lags the log (e.g. a crash between the two writes).
		// Recompute rather than serve stale context.
		m.logger.Warn("session metadata out of sync with turn log, recomputing context",
			"session_id", sess.SessionID, "turn_count", sess.TurnCount, "turns", maxTurn)
		full, err := storage.ListTurns(ctx, m.db.DB(), sess.SessionID, 0)
		if err != nil {
			return nil, err
		}
		sessionContext = m.extractor.Replay(full)
	}

	verdict := m.detector.Detect(question, sessionContext, history)

	m.logger.Debug("initial state assembled",
		"session_id", sess.SessionID,
		"created", created,
		"history", len(history),
		"is_followup", verdict.IsFollowup,
		"reason", verdict.Reason)

	return &InitialState{
		SessionID:           sess.SessionID,
		SessionCreated:      created,
		ConversationHistory: history,
		Context:             sessionContext,
		IsFollowup:          verdict.IsFollowup,
		IsDirectRecall:      verdict.IsDirectRecall,
		Reason:              verdict.Reason,
		TurnNumberToAssign:  maxTurn + 1,
	}, nil
}

// SaveConversationResult persists one answered question: it appends the
// turn, folds it into the session context, and updates the registry, all
// inside a single transaction (append first, so a torn write understates
// rather than overstates turn_count). Returns the stored turn.
func (m *Manager) SaveConversationResult(ctx context.Context, sessionID, question, answer string, meta TurnMetadata) (*storage.ConversationTurn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	questionType := meta.QuestionType
	if questionType == "" {
		questionType = ClassifyQuestion(question)
	}
	visaFocus := meta.VisaFocus
	if visaFocus == nil {
		visaFocus = MatchVisaTypes(question)
	}
	timestamp := meta.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	var saved *storage.ConversationTurn
	err := m.db.WithTx(ctx, func(tx storage.ExecQuerier) error {
		sess, err := storage.GetSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		maxTurn, err := storage.MaxTurnNumber(ctx, tx, sessionID)
		if err != nil {
			return err
		}

		turn := &storage.ConversationTurn{
			SessionID:    sessionID,
			TurnNumber:   maxTurn + 1,
			Question:     question,
			Answer:       answer,
			Timestamp:    timestamp,
			QuestionType: questionType,
			VisaFocus:    storage.JSONStringArray(visaFocus),
			ToolsUsed:    storage.JSONStringArray(meta.ToolsUsed),
		}
		if err := storage.AppendTurn(ctx, tx, turn); err != nil {
			return err
		}

		base := sess.Context
		if sess.TurnCount != maxTurn {
			prior, err := storage.ListTurns(ctx, tx, sessionID, 0)
			if err != nil {
				return err
			}
			// The new turn is already in the log at this point.
			base = m.extractor.Replay(prior[:len(prior)-1])
		}
		newContext := m.extractor.Extract(base, *turn)

		if sess.TurnCount == maxTurn {
			if err := storage.UpdateSession(ctx, tx, sessionID, turn.TurnNumber, newContext); err != nil {
				return err
			}
		} else {
			// Repair path: the cache was already behind, bring it to
			// the log's truth without the optimistic check.
			m.logger.Warn("repairing stale session metadata",
				"session_id", sessionID, "turn_count", sess.TurnCount, "turns", turn.TurnNumber)
			if err := storage.RefreshSessionContext(ctx, tx, sessionID, turn.TurnNumber, newContext); err != nil {
				return err
			}
		}

		saved = turn
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save conversation result: %w", err)
	}

	m.logger.Info("conversation turn saved",
		"session_id", sessionID, "turn_number", saved.TurnNumber, "question_type", saved.QuestionType)
	return saved, nil
}

// ListSessions enumerates all sessions, most recently updated first.
func (m *Manager) ListSessions(ctx context.Context) ([]storage.Session, error) {
	return storage.ListSessions(ctx, m.db.DB())
}

// History returns a session's full turn log in order.
func (m *Manager) History(ctx context.Context, sessionID string) ([]storage.ConversationTurn, error) {
	return storage.ListTurns(ctx, m.db.DB(), sessionID, 0)
}

// PurgeOlderThan removes sessions idle since before cutoff. Manual
// cleanup only.
func (m *Manager) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return storage.PurgeSessionsOlderThan(ctx, m.db.DB(), cutoff)
}

var firstReferencePattern = regexp.MustCompile(`(?i)\bfirst\b|\bbegin(ning)?\b|\bstart(ed)?\b`)

// ResolveDirectRecall returns the literal turn a direct-recall question
// refers to: the first turn for "first question" style references,
// otherwise the most recent one. The caller renders it verbatim instead
// of synthesizing an answer.
func (m *Manager) ResolveDirectRecall(ctx context.Context, sessionID, question string) (*storage.ConversationTurn, error) {
	if firstReferencePattern.MatchString(question) {
		return storage.FirstTurn(ctx, m.db.DB(), sessionID)
	}
	return storage.LastTurn(ctx, m.db.DB(), sessionID)
}
