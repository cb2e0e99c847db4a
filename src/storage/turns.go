package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/sqlscan"
)

const turnColumns = `session_id, turn_number, question, answer, timestamp, question_type, visa_focus, tools_used`

// AppendTurn persists a new turn. The turn's number must be exactly one
// past the session's current maximum; anything else fails with
// ErrTurnOutOfOrder before writing. The (session_id, turn_number) primary
// key rejects the duplicate if a concurrent writer appended in between.
func AppendTurn(ctx context.Context, db ExecQuerier, turn *ConversationTurn) error {
	max, err := MaxTurnNumber(ctx, db, turn.SessionID)
	if err != nil {
		return err
	}
	if turn.TurnNumber != max+1 {
		return fmt.Errorf("append turn %d to session %q with %d turns: %w",
			turn.TurnNumber, turn.SessionID, max, ErrTurnOutOfOrder)
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if turn.QuestionType == "" {
		turn.QuestionType = QuestionUnknown
	}
	if turn.VisaFocus == nil {
		turn.VisaFocus = JSONStringArray{}
	}
	if turn.ToolsUsed == nil {
		turn.ToolsUsed = JSONStringArray{}
	}

	query := `INSERT INTO conversation_turns (` + turnColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		turn.SessionID,
		turn.TurnNumber,
		turn.Question,
		turn.Answer,
		turn.Timestamp,
		turn.QuestionType,
		turn.VisaFocus,
		turn.ToolsUsed,
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's turns in ascending turn_number order.
// A positive limit keeps only the most recent limit turns. Unknown
// sessions yield an empty slice, not an error.
func ListTurns(ctx context.Context, db sqlscan.Querier, sessionID string, limit int) ([]ConversationTurn, error) {
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE session_id = ? ORDER BY turn_number ASC`
	args := []interface{}{sessionID}
	if limit > 0 {
		query = `SELECT ` + turnColumns + ` FROM (
			SELECT ` + turnColumns + ` FROM conversation_turns WHERE session_id = ? ORDER BY turn_number DESC LIMIT ?
		) ORDER BY turn_number ASC`
		args = append(args, limit)
	}

	var turns []ConversationTurn
	if err := sqlscan.Select(ctx, db, &turns, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return turns, nil
}

// FirstTurn returns the earliest turn of a session, or ErrNotFound.
func FirstTurn(ctx context.Context, db sqlscan.Querier, sessionID string) (*ConversationTurn, error) {
	return turnAtEnd(ctx, db, sessionID, "ASC")
}

// LastTurn returns the most recent turn of a session, or ErrNotFound.
func LastTurn(ctx context.Context, db sqlscan.Querier, sessionID string) (*ConversationTurn, error) {
	return turnAtEnd(ctx, db, sessionID, "DESC")
}

func turnAtEnd(ctx context.Context, db sqlscan.Querier, sessionID, direction string) (*ConversationTurn, error) {
	query := `SELECT ` + turnColumns + ` FROM conversation_turns WHERE session_id = ? ORDER BY turn_number ` + direction + ` LIMIT 1`
	var turn ConversationTurn
	err := sqlscan.Get(ctx, db, &turn, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no turns for session %q: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load turn: %w", err)
	}
	return &turn, nil
}

// MaxTurnNumber returns the highest turn_number recorded for a session,
// 0 when the session has no turns. This, not the registry's cached
// turn_count, is the authoritative position in the log.
func MaxTurnNumber(ctx context.Context, db sqlscan.Querier, sessionID string) (int, error) {
	var max int
	query := `SELECT COALESCE(MAX(turn_number), 0) FROM conversation_turns WHERE session_id = ?`
	if err := sqlscan.Get(ctx, db, &max, query, sessionID); err != nil {
		return 0, fmt.Errorf("failed to read max turn number: %w", err)
	}
	return max, nil
}
