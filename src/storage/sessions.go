package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

const sessionColumns = `session_id, turn_count, session_context, created_at, updated_at`

// maxIDAttempts bounds the retry loop for generated session ids.
const maxIDAttempts = 5

// GetSession retrieves a session by its id, or ErrNotFound.
func GetSession(ctx context.Context, db sqlscan.Querier, sessionID string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = ?`
	var s Session
	err := sqlscan.Get(ctx, db, &s, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

// CreateSession inserts a new session row with zero turns and an empty
// context.
func CreateSession(ctx context.Context, db Execer, session *Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = now
	}

	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		session.SessionID, session.TurnCount, session.Context, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetOrCreateSession returns the session for sessionID, creating it when
// absent. When sessionID is empty a new id is generated from the seed
// question; generation retries with fresh random suffixes and fails with
// ErrIDCollision once the retry budget is spent. The returned bool is
// true when a new session row was created.
func GetOrCreateSession(ctx context.Context, db ExecQuerier, sessionID, seedQuestion string) (*Session, bool, error) {
	sessionID = strings.TrimSpace(sessionID)

	if sessionID != "" {
		s, err := GetSession(ctx, db, sessionID)
		if err == nil {
			return s, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		s = &Session{SessionID: sessionID}
		if err := CreateSession(ctx, db, s); err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := NewSessionID(seedQuestion)
		_, err := GetSession(ctx, db, candidate)
		if err == nil {
			continue // taken, retry with a fresh suffix
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
		s := &Session{SessionID: candidate}
		if err := CreateSession(ctx, db, s); err != nil {
			return nil, false, err
		}
		return s, true, nil
	}

	return nil, false, ErrIDCollision
}

// UpdateSession replaces a session's mutable fields. The WHERE clause
// compares the expected prior turn_count so that a racing writer's lost
// update surfaces as ErrTurnOutOfOrder instead of silently winning.
func UpdateSession(ctx context.Context, db ExecQuerier, sessionID string, newTurnCount int, newContext SessionContext) error {
	query := `UPDATE sessions SET turn_count = ?, session_context = ?, updated_at = ? WHERE session_id = ? AND turn_count = ?`
	res, err := db.ExecContext(ctx, query,
		newTurnCount, newContext, time.Now().UTC(), sessionID, newTurnCount-1)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		if _, err := GetSession(ctx, db, sessionID); err != nil {
			return err
		}
		return fmt.Errorf("session %q turn_count moved past %d: %w", sessionID, newTurnCount-1, ErrTurnOutOfOrder)
	}
	return nil
}

// RefreshSessionContext rewrites the cached turn_count and context
// without the optimistic check. Used when repairing a stale cache from
// the log.
func RefreshSessionContext(ctx context.Context, db ExecQuerier, sessionID string, turnCount int, context SessionContext) error {
	query := `UPDATE sessions SET turn_count = ?, session_context = ?, updated_at = ? WHERE session_id = ?`
	res, err := db.ExecContext(ctx, query, turnCount, context, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to refresh session context: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	return nil
}

// ListSessions returns every session ordered most-recently-updated
// first. Each call re-queries current state.
func ListSessions(ctx context.Context, db sqlscan.Querier) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY updated_at DESC, session_id ASC`
	var sessions []Session
	if err := sqlscan.Select(ctx, db, &sessions, query); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// PurgeSessionsOlderThan deletes sessions (and their turns) whose last
// activity predates cutoff. Returns the number of sessions removed.
// Cleanup is manual only; nothing calls this automatically.
func PurgeSessionsOlderThan(ctx context.Context, db ExecQuerier, cutoff time.Time) (int64, error) {
	_, err := db.ExecContext(ctx,
		`DELETE FROM conversation_turns WHERE session_id IN (SELECT session_id FROM sessions WHERE updated_at < ?)`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge turns: %w", err)
	}

	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}
	return removed, nil
}
