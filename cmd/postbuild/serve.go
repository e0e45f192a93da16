package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cihooks/postbuild/pkg/cmd"
	"github.com/cihooks/postbuild/pkg/log"
	"github.com/cihooks/postbuild/pkg/persistence"
	"github.com/cihooks/postbuild/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

const defaultPort = 9191

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve the run history API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for run history",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.DurationFlag{
				Name:    "retention",
				Usage:   "Prune run history older than this age (disabled when zero)",
				Sources: cli.EnvVars("POSTBUILD_RETENTION"),
			},
			&cli.StringFlag{
				Name:    "retention-schedule",
				Usage:   "Cron schedule for the retention sweep",
				Value:   "@hourly",
				Sources: cli.EnvVars("POSTBUILD_RETENTION_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	apiLogger := log.WithModule("postbuild-api")

	apiLogger.InfoContext(ctx, "Initializing run history API")

	store, err := cmd.NewPersistence(ctx, apiLogger, command.String("database-url"))
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	defer func() {
		err := store.Close(ctx)
		if err != nil {
			apiLogger.ErrorContext(ctx, "Failed to close run store", "error", err)
		}
	}()

	if retention := command.Duration("retention"); retention > 0 {
		scheduler, err := startRetention(ctx, apiLogger, store, retention, command.String("retention-schedule"))
		if err != nil {
			return err
		}

		defer scheduler.Stop()
	}

	api := NewAPI(apiLogger, store)

	return api.Start(command.Int("port"))
}

type API struct {
	logger   *slog.Logger
	store    persistence.Persistence
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, store persistence.Persistence) *API {
	return &API{
		logger:   logger,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.store, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Postbuild API")
	})

	r := app.Group("/runs")
	r.Get("/", handlers.GetRuns)
	r.Get("/:id", handlers.GetRun)
	r.Delete("/:id", handlers.DeleteRun)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	err := app.Listen(":" + strconv.Itoa(port))

	return err
}

// startRetention schedules periodic pruning of run history older than the
// retention window.
func startRetention(
	ctx context.Context,
	apiLogger *slog.Logger,
	store persistence.Persistence,
	retention time.Duration,
	schedule string,
) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := scheduler.AddFunc(schedule, func() {
		pruned, err := store.PruneRuns(ctx, time.Now().UTC().Add(-retention))
		if err != nil {
			apiLogger.ErrorContext(ctx, "Failed to prune run history", "error", err)

			return
		}

		if pruned > 0 {
			apiLogger.InfoContext(ctx, "Pruned run history", "runs", pruned, "retention", retention)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid retention schedule: %w", err)
	}

	scheduler.Start()
	apiLogger.InfoContext(ctx, "Run history retention enabled", "retention", retention, "schedule", schedule)

	return scheduler, nil
}
