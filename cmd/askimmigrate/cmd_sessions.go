package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"
)

// SessionsCmd lists stored sessions or purges stale ones
type SessionsCmd struct {
	PurgeOlderThan time.Duration `help:"Delete sessions not updated within this duration (e.g. 720h)"`
}

// Run executes the sessions command
func (c *SessionsCmd) Run(ctx *kong.Context, cli *CLI) error {
	a, err := loadApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	runCtx := context.Background()

	if c.PurgeOlderThan > 0 {
		purged, err := a.Sessions.PurgeOlderThan(runCtx, time.Now().UTC().Add(-c.PurgeOlderThan))
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d session(s)\n", purged)
	}

	sessions, err := a.Sessions.ListSessions(runCtx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions stored.")
		return nil
	}

	fmt.Printf("%-40s %6s  %-19s  %s\n", "SESSION", "TURNS", "UPDATED", "CONTEXT")
	for _, sess := range sessions {
		var parts []string
		if len(sess.Context.VisaTypesMentioned) > 0 {
			parts = append(parts, strings.Join(sess.Context.VisaTypesMentioned, ","))
		}
		if sess.Context.UserSituation != "" {
			parts = append(parts, sess.Context.UserSituation)
		}
		fmt.Printf("%-40s %6d  %-19s  %s\n",
			sess.SessionID,
			sess.TurnCount,
			sess.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			strings.Join(parts, "; "))
	}
	return nil
}
