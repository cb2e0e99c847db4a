package main

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
)

// HistoryCmd shows the full turn history of a session
type HistoryCmd struct {
	Session string `arg:"" help:"Session id"`
}

// Run executes the history command
func (c *HistoryCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := loadApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	turns, err := a.Sessions.History(context.Background(), c.Session)
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Printf("No turns recorded for session %q\n", c.Session)
		return nil
	}

	for _, turn := range turns {
		fmt.Printf("Turn %d (%s, %s)\n", turn.TurnNumber, turn.QuestionType, turn.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Q: %s\n", turn.Question)
		fmt.Printf("A: %s\n\n", turn.Answer)
	}
	return nil
}
