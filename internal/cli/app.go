// Package cli is the command line front end. Every command except serve
// opens the configured database, does its work and closes it again.
package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mrlokans/booklet/internal/config"
	"github.com/mrlokans/booklet/internal/entrypoint"
)

// AuditTrigger tags journal entries written by CLI commands.
const AuditTrigger = "cli"

// NewApp builds the booklet command tree. Running it without a command
// starts the HTTP server.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "booklet",
		Usage:   "personal reading tracker",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "database file, overrides DATABASE_PATH",
			},
			&cli.StringFlag{
				Name:  "backup-dir",
				Usage: "backup directory, overrides BACKUP_DIR",
			},
			&cli.StringFlag{
				Name:  "audit-dir",
				Usage: "backup journal directory, overrides AUDIT_DIR",
			},
		},
		Action: serveAction(version),
		Commands: []*cli.Command{
			serveCommand(version),
			backupCommand(),
			restoreCommand(),
			backupsCommand(),
			booksCommand(),
		},
	}
}

// loadConfig reads the environment and applies the global flag overrides.
func loadConfig(c *cli.Context) *config.Config {
	cfg := config.NewConfig()
	if db := c.String("db"); db != "" {
		cfg.Database.Path = db
	}
	if dir := c.String("backup-dir"); dir != "" {
		cfg.Backup.Dir = dir
	}
	if dir := c.String("audit-dir"); dir != "" {
		cfg.Audit.Dir = dir
	}
	return cfg
}

// withApp opens the library for one command and closes it afterwards.
func withApp(c *cli.Context, fn func(app *entrypoint.App) error) error {
	app, err := entrypoint.Open(loadConfig(c))
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			fmt.Fprintf(c.App.ErrWriter, "Failed to close database: %v\n", err)
		}
	}()
	return fn(app)
}

func serveAction(version string) cli.ActionFunc {
	return func(c *cli.Context) error {
		return entrypoint.Run(loadConfig(c), version)
	}
}

func serveCommand(version string) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "start the HTTP server (default)",
		Action: serveAction(version),
	}
}
