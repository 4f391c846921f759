package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/calhub/calendar-service-go/internal/db"
	"github.com/calhub/calendar-service-go/internal/dependency"
	"github.com/calhub/calendar-service-go/internal/notify"
	"github.com/calhub/calendar-service-go/internal/repository"
	"github.com/calhub/calendar-service-go/internal/service"
	"github.com/calhub/calendar-service-go/internal/util"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "calendarctl",
		Usage: "Operator tasks for the calendar service.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level."},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			syncPendingCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("calendarctl failed", "err", err)
		os.Exit(1)
	}
}

func loggerFor(c *cli.Context) *slog.Logger {
	if c.Bool("verbose") {
		return util.GetLogger(slog.LevelDebug)
	}
	return util.GetLogger(slog.LevelInfo)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema.",
		Action: func(c *cli.Context) error {
			logger := loggerFor(c)

			// InitDependency migrates on open.
			dep, err := dependency.InitDependency(logger)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer dependency.CloseDependency(dep)

			if err := db.Migrate(dep.DB); err != nil {
				return err
			}

			logger.Info("schema is up to date")
			return nil
		},
	}
}

func syncPendingCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-pending",
		Usage: "Promote pending friend requests whose recipients have signed up.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "owner", Usage: "Only sync requests sent by this user id."},
		},
		Action: func(c *cli.Context) error {
			logger := loggerFor(c)

			dep, err := dependency.InitDependency(logger)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer dependency.CloseDependency(dep)

			notifier := notify.NewNotifier(dep)
			defer notifier.Wait()

			friends := service.NewFriendService(dep, repository.NewConnectionRepository(dep.DB), repository.NewAccountRepository(dep.DB), notifier)

			var promoted int
			if owner := c.String("owner"); owner != "" {
				promoted, err = friends.SyncPendingForOwner(c.Context, owner)
			} else {
				promoted, err = friends.SyncAllPending(c.Context)
			}
			if err != nil {
				return err
			}

			logger.Info("sync finished", "promoted", promoted)
			return nil
		},
	}
}
