package session

import (
	"testing"

	"github.com/askimmigrate/askimmigrate/src/storage"
	"github.com/stretchr/testify/assert"
)

func TestDetectFollowup(t *testing.T) {
	detector := NewDetector()

	f1Context := storage.SessionContext{VisaTypesMentioned: []string{"F-1"}}
	f1History := []storage.ConversationTurn{
		{SessionID: "s", TurnNumber: 1, Question: "What is an F-1 visa?", Answer: "A student visa."},
	}

	tests := []struct {
		name       string
		question   string
		context    storage.SessionContext
		history    []storage.ConversationTurn
		wantFollow bool
		wantRecall bool
		wantReason Reason
	}{
		{
			name:       "no prior turns is never a follow-up",
			question:   "How do I extend it?",
			context:    storage.SessionContext{},
			history:    nil,
			wantFollow: false,
			wantReason: ReasonNoPriorTurns,
		},
		{
			name:       "first question recall",
			question:   "What was my first question?",
			context:    f1Context,
			history:    f1History,
			wantFollow: true,
			wantRecall: true,
			wantReason: ReasonSessionReference,
		},
		{
			name:       "previous question recall",
			question:   "what did I ask earlier?",
			context:    f1Context,
			history:    f1History,
			wantFollow: true,
			wantRecall: true,
			wantReason: ReasonSessionReference,
		},
		{
			name:       "pronoun leaning on context",
			question:   "How do I extend it?",
			context:    f1Context,
			history:    f1History,
			wantFollow: true,
			wantReason: ReasonPronounReference,
		},
		{
			name:       "pronoun anchored by its own visa mention",
			question:   "Is that F-1 grace period 60 days?",
			context:    f1Context,
			history:    f1History,
			wantFollow: true,
			wantReason: ReasonSharedTopic,
		},
		{
			name:     "shared topic keyword",
			question: "When is the interview scheduled?",
			context: storage.SessionContext{
				OngoingTopics: []string{"visa interview"},
			},
			history:    f1History,
			wantFollow: true,
			wantReason: ReasonSharedTopic,
		},
		{
			name:       "unrelated visa is a fresh question",
			question:   "What is an H-1B visa?",
			context:    f1Context,
			history:    f1History,
			wantFollow: false,
			wantReason: ReasonNewQuestion,
		},
		{
			name:       "pronoun with empty context degrades to fresh",
			question:   "Can they deny it?",
			context:    storage.SessionContext{},
			history:    f1History,
			wantFollow: false,
			wantReason: ReasonNewQuestion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(tt.question, tt.context, tt.history)
			assert.Equal(t, tt.wantFollow, got.IsFollowup)
			assert.Equal(t, tt.wantRecall, got.IsDirectRecall)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}
