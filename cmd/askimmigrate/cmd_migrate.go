package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/askimmigrate/askimmigrate/src/config"
	"github.com/askimmigrate/askimmigrate/src/storage"
)

// MigrateCmd manages database migrations
type MigrateCmd struct {
	Up MigrateUpCmd `cmd:"" help:"Run pending migrations"`
}

// MigrateUpCmd runs pending migrations
type MigrateUpCmd struct {
	DBPath string `help:"Database path (defaults to config)"`
}

// Run executes the migrate up command
func (c *MigrateUpCmd) Run(ctx *kong.Context, cli *CLI) error {
	dbPath := c.DBPath
	if dbPath == "" {
		if cli.DBPath != "" {
			dbPath = cli.DBPath
		} else {
			dbPath = config.GetDefaultStoragePaths().DatabasePath
		}
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Database ready: %s (migrations applied on open)\n", dbPath)
	return nil
}
