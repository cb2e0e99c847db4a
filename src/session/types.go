package session

import (
	"errors"
	"time"

	"github.com/askimmigrate/askimmigrate/src/storage"
)

var (
	// ErrEmptyQuestion rejects a request before anything is written.
	ErrEmptyQuestion = errors.New("question text is empty")

	// ErrEmptyAnswer rejects a save whose answer is empty; reporting
	// success for it would corrupt the turn count.
	ErrEmptyAnswer = errors.New("answer text is empty")
)

// Reason explains a follow-up decision to the downstream agent layer so
// it can choose between verbatim lookup and contextual synthesis.
type Reason string

const (
	// ReasonNoPriorTurns: a brand-new session, nothing to follow up on.
	ReasonNoPriorTurns Reason = "no_prior_turns"
	// ReasonSessionReference: the question asks about the conversation
	// itself ("what was my first question").
	ReasonSessionReference Reason = "session_reference"
	// ReasonPronounReference: an unresolved pronoun leaning on context.
	ReasonPronounReference Reason = "pronoun_reference"
	// ReasonSharedTopic: the question shares a visa type or topic with
	// the accumulated session context.
	ReasonSharedTopic Reason = "shared_topic"
	// ReasonNewQuestion: nothing ties the question to this session.
	ReasonNewQuestion Reason = "new_question"
)

// FollowupResult is the detector's verdict on one question.
type FollowupResult struct {
	IsFollowup     bool   `json:"is_followup"`
	IsDirectRecall bool   `json:"is_direct_recall"`
	Reason         Reason `json:"reason"`
}

// InitialState is everything the agent layer needs before generating an
// answer: identity, recent history, the derived context, and the
// follow-up verdict.
type InitialState struct {
	SessionID           string                     `json:"session_id"`
	SessionCreated      bool                       `json:"session_created"`
	ConversationHistory []storage.ConversationTurn `json:"conversation_history"`
	Context             storage.SessionContext     `json:"session_context"`
	IsFollowup          bool                       `json:"is_followup"`
	IsDirectRecall      bool                       `json:"is_direct_recall"`
	Reason              Reason                     `json:"reason"`
	TurnNumberToAssign  int                        `json:"turn_number_to_assign"`
}

// TurnMetadata carries what the agent layer learned while answering.
// Zero values are filled from the extractor's own heuristics.
type TurnMetadata struct {
	QuestionType storage.QuestionType
	VisaFocus    []string
	ToolsUsed    []string
	Timestamp    time.Time
}
