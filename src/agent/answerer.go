// Package agent is the seam between the session core and the answer
// generation layer. The real multi-agent RAG pipeline lives behind the
// Answerer interface; the fallback implementation here answers without
// any model or network so the CLI and API work offline and direct
// recall stays verbatim.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/askimmigrate/askimmigrate/src/session"
)

// Answer is what an Answerer produced for one question.
type Answer struct {
	Text      string
	ToolsUsed []string
}

// Answerer turns a question plus its initial session state into an
// answer. Implementations may call models, tools, or nothing at all.
type Answerer interface {
	Answer(ctx context.Context, question string, state *session.InitialState) (*Answer, error)
}

// Fallback is a deterministic, offline Answerer. Direct-recall
// questions are answered verbatim from the turn log; everything else
// gets a resource-pointer response.
type Fallback struct {
	manager *session.Manager
}

func NewFallback(manager *session.Manager) *Fallback {
	return &Fallback{manager: manager}
}

func (f *Fallback) Answer(ctx context.Context, question string, state *session.InitialState) (*Answer, error) {
	if state.IsDirectRecall {
		turn, err := f.manager.ResolveDirectRecall(ctx, state.SessionID, question)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve recall: %w", err)
		}

		var b strings.Builder
		b.WriteString("# Your Conversation History\n\n")
		fmt.Fprintf(&b, "## Your Question: %q\n\n", question)
		fmt.Fprintf(&b, "### Your question in turn %d was:\n**%q**\n\n", turn.TurnNumber, turn.Question)
		count := len(state.ConversationHistory)
		word := "turns"
		if count == 1 {
			word = "turn"
		}
		fmt.Fprintf(&b, "### We've had %d recent %s in this conversation:\n", count, word)
		for _, prior := range state.ConversationHistory {
			fmt.Fprintf(&b, "**Turn %d:** %s\n", prior.TurnNumber, prior.Question)
		}
		return &Answer{Text: b.String(), ToolsUsed: []string{"session_recall"}}, nil
	}

	var b strings.Builder
	b.WriteString("# Immigration Information\n\n")
	fmt.Fprintf(&b, "## Your Question: %q\n\n", question)
	b.WriteString("I understand you're asking about immigration. While I don't have specific information immediately available, I can guide you to the right resources.\n\n")
	b.WriteString("## Official Resources:\n")
	b.WriteString("- **USCIS Website:** https://www.uscis.gov\n")
	b.WriteString("- **USCIS Contact Center:** https://www.uscis.gov/contactcenter\n")
	b.WriteString("- **Forms and Fees:** https://www.uscis.gov/forms\n\n")
	b.WriteString("Always verify information with official USCIS sources for the most current requirements.\n")
	return &Answer{Text: b.String(), ToolsUsed: []string{"fallback_responder"}}, nil
}

// PromptContext renders the session context block an LLM-backed
// Answerer prepends to its prompt. Empty unless the question is a
// follow-up with history to lean on.
func PromptContext(state *session.InitialState, question string) string {
	if state == nil || !state.IsFollowup || len(state.ConversationHistory) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CONVERSATION CONTEXT (Session: %s)\n\n", state.SessionID)
	b.WriteString("FOLLOW-UP DETECTED: This question appears to reference our previous conversation.\n\n")
	b.WriteString("PREVIOUS CONVERSATION:\n")
	for _, turn := range state.ConversationHistory {
		answer := turn.Answer
		if len(answer) > 300 {
			answer = answer[:300] + "..."
		}
		fmt.Fprintf(&b, "Turn %d:\nQ: %s\nA: %s\n", turn.TurnNumber, turn.Question, answer)
	}

	b.WriteString("\nSESSION STATS:\n")
	fmt.Fprintf(&b, "- Total previous turns: %d\n", len(state.ConversationHistory))
	fmt.Fprintf(&b, "- Current question: %q\n", question)
	fmt.Fprintf(&b, "- First question was: %q\n", state.ConversationHistory[0].Question)
	if len(state.Context.VisaTypesMentioned) > 0 {
		fmt.Fprintf(&b, "- Visa types mentioned: %s\n", strings.Join(state.Context.VisaTypesMentioned, ", "))
	}
	if len(state.Context.OngoingTopics) > 0 {
		fmt.Fprintf(&b, "- Topics discussed: %s\n", strings.Join(state.Context.OngoingTopics, ", "))
	}
	if state.Context.UserSituation != "" {
		fmt.Fprintf(&b, "- User situation: %s\n", state.Context.UserSituation)
	}
	return b.String()
}
