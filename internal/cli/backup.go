package cli

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mrlokans/booklet/internal/backup"
	"github.com/mrlokans/booklet/internal/entities"
	"github.com/mrlokans/booklet/internal/entrypoint"
)

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "write a compressed copy of the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "artifact path, defaults to a timestamped file in the backup directory",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(app *entrypoint.App) error {
				var (
					info *backup.Info
					err  error
				)
				if out := c.String("out"); out != "" {
					info, err = app.Backups.Backup(out)
				} else {
					info, err = app.Backups.BackupToDir(app.Config.Backup.Dir)
				}
				if err != nil {
					app.Journal.RecordResult(entities.AuditActionBackup, AuditTrigger, c.String("out"), 0, "", err)
					return describe(err)
				}
				app.Journal.RecordResult(entities.AuditActionBackup, AuditTrigger, info.Path, info.SizeBytes, "", nil)

				fmt.Fprintf(c.App.Writer, "Backup written to %s (%d bytes)\n", info.Path, info.SizeBytes)
				return nil
			})
		},
	}
}

func restoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "replace the library with the contents of a backup",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "backup artifact to restore",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "skip the confirmation prompt",
			},
		},
		Action: func(c *cli.Context) error {
			src := c.String("file")
			if !c.Bool("yes") && !confirm(c, fmt.Sprintf("Replace the library with %s? Current data will be lost. [y/N] ", src)) {
				fmt.Fprintln(c.App.Writer, "Restore cancelled")
				return nil
			}

			return withApp(c, func(app *entrypoint.App) error {
				err := app.Backups.Restore(src)
				app.Journal.RecordResult(entities.AuditActionRestore, AuditTrigger, src, 0, "", err)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(c.App.Writer, "Library restored from %s\n", src)
				return nil
			})
		},
	}
}

func backupsCommand() *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "list backups, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "directory to list, defaults to the backup directory",
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(app *entrypoint.App) error {
				dir := c.String("dir")
				if dir == "" {
					dir = app.Config.Backup.Dir
				}
				list, err := app.Backups.List(dir)
				if err != nil {
					return describe(err)
				}
				if len(list) == 0 {
					fmt.Fprintf(c.App.Writer, "No backups in %s\n", dir)
					return nil
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tCREATED\tSIZE")
				for _, b := range list {
					fmt.Fprintf(w, "%s\t%s\t%d\n", b.Name, b.CreatedAt.Format("2006-01-02 15:04:05"), b.SizeBytes)
				}
				return w.Flush()
			})
		},
	}
}

func confirm(c *cli.Context, prompt string) bool {
	fmt.Fprint(c.App.Writer, prompt)
	scanner := bufio.NewScanner(c.App.Reader)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
