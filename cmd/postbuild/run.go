package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cihooks/postbuild/pkg/cmd"
	scripts "github.com/cihooks/postbuild/pkg/command"
	"github.com/cihooks/postbuild/pkg/config"
	"github.com/cihooks/postbuild/pkg/engine"
	"github.com/cihooks/postbuild/pkg/eventbus"
	"github.com/cihooks/postbuild/pkg/events"
	"github.com/cihooks/postbuild/pkg/log"
	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/otelhelper"
	"github.com/cihooks/postbuild/pkg/persistence"
	"github.com/cihooks/postbuild/pkg/processor"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the configured post-build actions for one finished build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "actions",
				Aliases:  []string{"a"},
				Usage:    "Path to the post-build action configuration file",
				Required: true,
				Sources:  cli.EnvVars("POSTBUILD_ACTIONS"),
			},
			&cli.StringFlag{
				Name:     "job",
				Usage:    "Name of the job the build belongs to",
				Required: true,
				Sources:  cli.EnvVars("JOB_NAME"),
			},
			&cli.IntFlag{
				Name:    "build-number",
				Usage:   "Number of the finished build",
				Sources: cli.EnvVars("BUILD_NUMBER"),
			},
			&cli.StringFlag{
				Name:    "build-result",
				Usage:   "Recorded build result (SUCCESS, UNSTABLE, FAILURE, NOT_BUILT, ABORTED)",
				Sources: cli.EnvVars("BUILD_RESULT"),
			},
			&cli.StringFlag{
				Name:    "built-on",
				Usage:   "Name of the worker node the build ran on (empty for the controller)",
				Sources: cli.EnvVars("NODE_NAME"),
			},
			&cli.StringFlag{
				Name:    "workspace",
				Usage:   "Build workspace directory scripts run in",
				Value:   ".",
				Sources: cli.EnvVars("WORKSPACE"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for run history (optional)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type for run lifecycle events (kafka, memory)",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated list of Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Path to the directory containing step plugins",
				Value:   "./plugins",
				Sources: cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export run spans over OTLP",
				Sources: cli.EnvVars("POSTBUILD_TRACING"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	runID := "run-" + uuid.New().String()[:8]
	logger := log.WithModule("postbuild").With(
		"run_id", runID,
		"job", command.String("job"),
		"build_number", command.Int("build-number"),
	)

	configuration, err := config.Load(command.String("actions"))
	if err != nil {
		return fmt.Errorf("failed to load action file: %w", err)
	}

	workspace, err := filepath.Abs(command.String("workspace"))
	if err != nil {
		return fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	build := &models.BuildContext{
		JobName:     command.String("job"),
		BuildNumber: command.Int("build-number"),
		Result:      models.Result(strings.ToUpper(command.String("build-result"))),
		BuiltOn:     command.String("built-on"),
		Workspace:   workspace,
		Env:         environMap(),
	}

	registry := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))
	runner := scripts.NewExecutor(logger, os.Stdout)
	evaluator := engine.NewEvaluator(logger, os.Stdout)

	proc := processor.New(logger, runner, evaluator, registry, func(result models.Result) {
		logger.InfoContext(ctx, "Build result updated", "result", result)
	})

	var bus eventbus.EventBus
	if provider := command.String("event-bus"); provider != "" {
		bus = cmd.NewEventBus(provider, splitBrokers(command.String("kafka-brokers")), logger)

		defer func() {
			err := bus.Close()
			if err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()
	}

	var store persistence.Persistence
	if databaseURL := command.String("database-url"); databaseURL != "" {
		store, err = cmd.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}

		defer func() {
			err := store.Close(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to close run store", "error", err)
			}
		}()
	}

	var span trace.Span
	if command.Bool("tracing") {
		tracer, err := otelhelper.NewTracer(ctx, "postbuild")
		if err != nil {
			return fmt.Errorf("failed to initialize tracer: %w", err)
		}

		ctx, span = otelhelper.StartSpan(ctx, tracer, "postbuild.run",
			attribute.String(otelhelper.RunIDKey, runID),
			attribute.String(otelhelper.JobNameKey, build.JobName),
			attribute.Int(otelhelper.BuildNumberKey, build.BuildNumber),
			attribute.String(otelhelper.BuildResultKey, string(build.Result)),
		)
		defer span.End()
	}

	logger.InfoContext(ctx, "Running post-build actions",
		"actions", command.String("actions"),
		"workspace", workspace,
		"build_result", build.Result,
	)

	startedAt := time.Now().UTC()
	publishRunStarted(ctx, logger, bus, runID, build)

	outcome := proc.Process(ctx, build, configuration)
	finishedAt := time.Now().UTC()

	if span != nil {
		span.SetAttributes(
			attribute.String(otelhelper.FinalResultKey, string(outcome.FinalResult)),
			attribute.Bool(otelhelper.SucceededKey, outcome.Succeeded),
		)

		if outcome.Error != "" {
			otelhelper.SetError(span, errors.New(outcome.Error))
		}
	}

	publishRunFinished(ctx, logger, bus, runID, build, outcome, finishedAt.Sub(startedAt))
	recordRun(ctx, logger, store, runID, build, outcome, startedAt, finishedAt)

	if !outcome.Succeeded {
		return cli.Exit("post-build actions failed", 1)
	}

	logger.InfoContext(ctx, "Post-build actions finished",
		"final_result", outcome.FinalResult,
		"duration", finishedAt.Sub(startedAt),
	)

	return nil
}

// environMap snapshots the process environment for the build context.
func environMap() map[string]string {
	env := make(map[string]string)

	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}

		env[key] = value
	}

	return env
}

func splitBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	trimmed := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		trimmed = append(trimmed, part)
	}

	return trimmed
}

func publishRunStarted(
	ctx context.Context,
	logger *slog.Logger,
	bus eventbus.EventBus,
	runID string,
	build *models.BuildContext,
) {
	if bus == nil {
		return
	}

	event := events.RunStarted{
		BaseEvent:   events.NewBaseEvent(events.RunStartedEvent, build.JobName, build.BuildNumber),
		RunID:       runID,
		BuildResult: build.Result,
	}

	err := bus.Publish(ctx, runID, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish run started event", "error", err)
	}
}

func publishRunFinished(
	ctx context.Context,
	logger *slog.Logger,
	bus eventbus.EventBus,
	runID string,
	build *models.BuildContext,
	outcome processor.Outcome,
	duration time.Duration,
) {
	if bus == nil {
		return
	}

	event := events.RunFinished{
		BaseEvent:   events.NewBaseEvent(events.RunFinishedEvent, build.JobName, build.BuildNumber),
		RunID:       runID,
		Succeeded:   outcome.Succeeded,
		FinalResult: outcome.FinalResult,
		Error:       outcome.Error,
		Duration:    duration,
	}

	err := bus.Publish(ctx, runID, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish run finished event", "error", err)
	}
}

func recordRun(
	ctx context.Context,
	logger *slog.Logger,
	store persistence.Persistence,
	runID string,
	build *models.BuildContext,
	outcome processor.Outcome,
	startedAt, finishedAt time.Time,
) {
	if store == nil {
		return
	}

	record := &models.RunRecord{
		ID:          runID,
		JobName:     build.JobName,
		BuildNumber: build.BuildNumber,
		BuildResult: build.Result,
		FinalResult: outcome.FinalResult,
		Succeeded:   outcome.Succeeded,
		Error:       outcome.Error,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}

	err := store.SaveRun(ctx, record)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to record run", "error", err)
	}
}
