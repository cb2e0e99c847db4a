package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/askimmigrate/askimmigrate/src/session"
)

// AskCmd asks a single immigration question
type AskCmd struct {
	Session  string   `short:"s" help:"Session id to continue (a new session is created when omitted)"`
	Question []string `arg:"" help:"The question to ask"`
}

// Run executes the ask command
func (c *AskCmd) Run(ctx *kong.Context, cli *CLI) error {
	question := strings.TrimSpace(strings.Join(c.Question, " "))

	a, err := loadApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	runCtx := context.Background()

	state, err := a.Sessions.CreateInitialState(runCtx, c.Session, question)
	if err != nil {
		return err
	}

	answer, err := a.Answerer.Answer(runCtx, question, state)
	if err != nil {
		return err
	}

	turn, err := a.Sessions.SaveConversationResult(runCtx, state.SessionID, question, answer.Text, session.TurnMetadata{
		ToolsUsed: answer.ToolsUsed,
	})
	if err != nil {
		return err
	}

	fmt.Println(answer.Text)
	fmt.Printf("\n--\nsession: %s  turn: %d", state.SessionID, turn.TurnNumber)
	if state.IsFollowup {
		fmt.Printf("  follow-up: %s", state.Reason)
	}
	fmt.Println()
	return nil
}
