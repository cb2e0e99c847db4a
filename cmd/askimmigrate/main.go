package main

import (
	"github.com/alecthomas/kong"

	"github.com/askimmigrate/askimmigrate/src/app"
	"github.com/askimmigrate/askimmigrate/src/config"
)

// CLI represents the main CLI structure
type CLI struct {
	ConfigFile string `help:"Config file path (defaults to XDG config)" type:"path"`
	DBPath     string `env:"ASKIMMIGRATE_DB_PATH" help:"Session database path (defaults to config)"`
	LogLevel   string `default:"warn" help:"Log level"`

	Ask      AskCmd      `cmd:"" help:"Ask an immigration question"`
	Sessions SessionsCmd `cmd:"" help:"List or purge stored sessions"`
	History  HistoryCmd  `cmd:"" help:"Show the turn history of a session"`
	Serve    ServeCmd    `cmd:"" help:"Run the HTTP API server"`
	Migrate  MigrateCmd  `cmd:"" help:"Database migrations"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("askimmigrate"),
		kong.Description("Session-aware US immigration assistant"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		FatalError(createCLILogger(cli.LogLevel), err)
	}
}

// loadApp builds the application from config plus CLI overrides.
func loadApp(cli *CLI) (*app.App, error) {
	precedence := config.DefaultPrecedence()
	if cli.ConfigFile != "" {
		precedence.UserConfig = cli.ConfigFile
	}

	cfg, err := config.NewLoader(precedence).Load()
	if err != nil {
		return nil, err
	}

	return app.New(cfg, app.Options{
		DatabasePath: cli.DBPath,
		Logger:       createCLILogger(cli.LogLevel),
	})
}
