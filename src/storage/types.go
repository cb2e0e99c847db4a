package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType classifies a conversation turn's question.
type QuestionType string

const (
	QuestionFactual    QuestionType = "factual"
	QuestionProcedural QuestionType = "procedural"
	QuestionAdvisory   QuestionType = "advisory"
	QuestionUnknown    QuestionType = "unknown"
)

// Session is the registry row for one conversation thread. TurnCount and
// Context are a cache derived from the turn log; the turn log is the
// source of truth.
type Session struct {
	SessionID string         `json:"session_id" db:"session_id"`
	TurnCount int            `json:"turn_count" db:"turn_count"`
	Context   SessionContext `json:"session_context" db:"session_context"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// ConversationTurn is one immutable question/answer exchange.
// TurnNumber is 1-based and gapless within a session.
type ConversationTurn struct {
	SessionID    string          `json:"session_id" db:"session_id"`
	TurnNumber   int             `json:"turn_number" db:"turn_number"`
	Question     string          `json:"question" db:"question"`
	Answer       string          `json:"answer" db:"answer"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
	QuestionType QuestionType    `json:"question_type" db:"question_type"`
	VisaFocus    JSONStringArray `json:"visa_focus" db:"visa_focus"`
	ToolsUsed    JSONStringArray `json:"tools_used" db:"tools_used"`
}

// SessionContext is the compact summary derived from a session's turns.
// Replaced wholesale on every append; replaying the turn log through the
// extractor reproduces an equivalent value.
type SessionContext struct {
	VisaTypesMentioned []string `json:"visa_types_mentioned"`
	OngoingTopics      []string `json:"ongoing_topics"`
	UserSituation      string   `json:"user_situation,omitempty"`
}

// HasSignals reports whether any context has accumulated yet.
func (c SessionContext) HasSignals() bool {
	return len(c.VisaTypesMentioned) > 0 || len(c.OngoingTopics) > 0
}

// Scan implements sql.Scanner, reading the JSON session_context column.
func (c *SessionContext) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = SessionContext{}
		return nil
	case string:
		if v == "" || v == "{}" {
			*c = SessionContext{}
			return nil
		}
		return json.Unmarshal([]byte(v), c)
	case []byte:
		if len(v) == 0 || string(v) == "{}" {
			*c = SessionContext{}
			return nil
		}
		return json.Unmarshal(v, c)
	default:
		return fmt.Errorf("cannot scan type %T into SessionContext", value)
	}
}

// Value implements driver.Valuer for the session_context column.
func (c SessionContext) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONStringArray is a custom type for string lists stored as JSON text.
type JSONStringArray []string

// Scan implements the sql.Scanner interface for JSONStringArray
func (j *JSONStringArray) Scan(value interface{}) error {
	if value == nil {
		*j = []string{}
		return nil
	}

	switch v := value.(type) {
	case string:
		if v == "" || v == "[]" {
			*j = []string{}
			return nil
		}
		return json.Unmarshal([]byte(v), j)
	case []byte:
		if len(v) == 0 || string(v) == "[]" {
			*j = []string{}
			return nil
		}
		return json.Unmarshal(v, j)
	default:
		return fmt.Errorf("cannot scan type %T into JSONStringArray", value)
	}
}

// Value implements the driver.Valuer interface for JSONStringArray
func (j JSONStringArray) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
