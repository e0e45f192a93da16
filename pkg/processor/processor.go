// Package processor executes configured post-build actions for a finished
// build. Actions run in three fixed phases (script files, inline scripts,
// step groups); each group is gated by its result and role filters, and the
// first failing action aborts everything that would have run after it.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cihooks/postbuild/pkg/command"
	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/protocol"
	"github.com/cihooks/postbuild/pkg/template"
)

// ScriptRunner launches a resolved script file as a child process and
// reports its exit code.
type ScriptRunner interface {
	Run(ctx context.Context, build *models.BuildContext, cmd *command.Command) (int, error)
}

// ScriptEvaluator evaluates scripts in-process. The boolean reports whether
// the script completed successfully; a non-nil error means the evaluator
// could not run the script at all.
type ScriptEvaluator interface {
	EvaluateFile(ctx context.Context, build *models.BuildContext, cmd *command.Command) (bool, error)
	EvaluateScript(ctx context.Context, build *models.BuildContext, name, content string) (bool, error)
}

// StepResolver creates build step implementations from their configured type.
type StepResolver interface {
	CreateStep(stepType string, config map[string]any) (protocol.Step, error)
}

// Outcome reports how a run ended. Succeeded is the boolean handed back to
// the host; FinalResult is the result the outcome policy applied to the
// build, empty when the recorded result was left untouched.
type Outcome struct {
	Succeeded   bool
	FinalResult models.Result
	Error       string
}

// Processor drives one post-build run.
type Processor struct {
	logger    *slog.Logger
	scripts   ScriptRunner
	engine    ScriptEvaluator
	steps     StepResolver
	setResult func(models.Result)
}

// New creates a Processor. setResult receives the result mutation the
// outcome policy decides on; it may be nil when the caller only needs the
// returned Outcome.
func New(logger *slog.Logger, scripts ScriptRunner, engine ScriptEvaluator, steps StepResolver, setResult func(models.Result)) *Processor {
	return &Processor{
		logger:    logger,
		scripts:   scripts,
		engine:    engine,
		steps:     steps,
		setResult: setResult,
	}
}

// Process runs every configured action against the finished build and
// applies the outcome policy exactly once. It never returns an error: any
// infrastructure failure is logged, recorded on the Outcome and folded into
// the same policy as an ordinary action failure.
func (p *Processor) Process(ctx context.Context, build *models.BuildContext, configuration *models.Configuration) Outcome {
	logger := p.logger.With("job", build.JobName, "build", build.BuildNumber)
	logger.InfoContext(ctx, "executing post-build actions", "result", build.Result)

	outcome := Outcome{}

	succeeded, err := p.runPhases(ctx, build, configuration)
	if err != nil {
		logger.ErrorContext(ctx, "post-build run aborted", "error", err)
		succeeded = false
		outcome.Error = err.Error()
	}

	outcome.FinalResult, outcome.Succeeded = Finalize(succeeded, configuration.MarkUnstableOnFailure, p.setResult)

	if outcome.FinalResult == "" {
		logger.InfoContext(ctx, "post-build actions completed")
	} else {
		logger.WarnContext(ctx, "post-build actions failed", "final_result", outcome.FinalResult)
	}

	return outcome
}

// Finalize applies the outcome policy to a finished run. When every phase
// succeeded the recorded result is left untouched and the run reports
// success. Otherwise the build is marked UNSTABLE and the run still reports
// success when markUnstableOnFailure is set, or marked FAILURE with the run
// reporting failure when it is not. The returned result is empty when no
// mutation was applied.
func Finalize(succeeded, markUnstableOnFailure bool, setResult func(models.Result)) (models.Result, bool) {
	if succeeded {
		return "", true
	}

	if markUnstableOnFailure {
		if setResult != nil {
			setResult(models.ResultUnstable)
		}

		return models.ResultUnstable, true
	}

	if setResult != nil {
		setResult(models.ResultFailure)
	}

	return models.ResultFailure, false
}

func (p *Processor) runPhases(ctx context.Context, build *models.BuildContext, configuration *models.Configuration) (bool, error) {
	if ok, err := p.processScriptFiles(ctx, build, configuration.ScriptFiles); !ok || err != nil {
		return false, err
	}

	if ok, err := p.processScripts(ctx, build, configuration.Scripts); !ok || err != nil {
		return false, err
	}

	return p.processStepGroups(ctx, build, configuration.StepGroups)
}

func (p *Processor) processScriptFiles(ctx context.Context, build *models.BuildContext, files []models.ScriptFile) (bool, error) {
	for i, file := range files {
		logger := p.logger.With("phase", PhaseScriptFiles, "group", i, "script", file.Path)

		if strings.TrimSpace(file.Path) == "" {
			logger.WarnContext(ctx, "no script path configured, skipping group")
			continue
		}

		if !p.groupEligible(ctx, logger, build, file.Criteria) {
			continue
		}

		resolved, err := template.Expand(file.Path, build.Vars())
		if err != nil {
			return false, NewError(PhaseScriptFiles, i, fmt.Errorf("resolving script path %q: %w", file.Path, err))
		}

		cmd := command.Parse(resolved)
		if cmd.ScriptPath == "" {
			logger.WarnContext(ctx, "script path resolved to nothing, skipping group", "resolved", resolved)
			continue
		}

		ok, err := p.runScriptFile(ctx, build, file.ScriptType, cmd)
		if err != nil {
			return false, NewError(PhaseScriptFiles, i, err)
		}

		if !ok {
			logger.ErrorContext(ctx, "script failed, aborting remaining post-build actions")
			return false, nil
		}
	}

	return true, nil
}

func (p *Processor) runScriptFile(ctx context.Context, build *models.BuildContext, scriptType models.ScriptType, cmd *command.Command) (bool, error) {
	if scriptType == models.ScriptTypeStarlark {
		return p.engine.EvaluateFile(ctx, build, cmd)
	}

	exitCode, err := p.scripts.Run(ctx, build, cmd)
	if err != nil {
		return false, err
	}

	return exitCode == 0, nil
}

func (p *Processor) processScripts(ctx context.Context, build *models.BuildContext, scripts []models.Script) (bool, error) {
	for i, script := range scripts {
		if strings.TrimSpace(script.Content) == "" {
			continue
		}

		logger := p.logger.With("phase", PhaseScripts, "group", i)

		if !p.groupEligible(ctx, logger, build, script.Criteria) {
			continue
		}

		ok, err := p.engine.EvaluateScript(ctx, build, fmt.Sprintf("script-%d", i), script.Content)
		if err != nil {
			return false, NewError(PhaseScripts, i, err)
		}

		if !ok {
			logger.ErrorContext(ctx, "script failed, aborting remaining post-build actions")
			return false, nil
		}
	}

	return true, nil
}

func (p *Processor) processStepGroups(ctx context.Context, build *models.BuildContext, groups []models.StepGroup) (bool, error) {
	for i, group := range groups {
		if len(group.Steps) == 0 {
			continue
		}

		logger := p.logger.With("phase", PhaseStepGroups, "group", i)

		if !p.groupEligible(ctx, logger, build, group.Criteria) {
			continue
		}

		for j, stepConfig := range group.Steps {
			stepLogger := logger.With("step", j, "step_type", stepConfig.Type)

			step, err := p.steps.CreateStep(stepConfig.Type, stepConfig.Config)
			if err != nil {
				return false, NewError(PhaseStepGroups, i, fmt.Errorf("creating step %q: %w", stepConfig.Type, err))
			}

			stepLogger.InfoContext(ctx, "executing build step")

			ok, err := step.Execute(ctx, build, stepLogger)
			if err != nil {
				return false, NewError(PhaseStepGroups, i, err)
			}

			if !ok {
				stepLogger.ErrorContext(ctx, "build step failed, aborting remaining post-build actions")
				return false, nil
			}
		}
	}

	return true, nil
}

// groupEligible applies the group's filters in order: node role first, then
// recorded build result. A build without a recorded result never matches.
func (p *Processor) groupEligible(ctx context.Context, logger *slog.Logger, build *models.BuildContext, criteria models.Criteria) bool {
	if !criteria.Role.Accepts(build.IsController()) {
		logger.InfoContext(ctx, "node role does not match, skipping group", "role", criteria.Role, "built_on", build.BuiltOn)
		return false
	}

	if !criteria.MatchesResult(build.Result) {
		logger.InfoContext(ctx, "build result does not match, skipping group", "results", criteria.Results, "result", build.Result)
		return false
	}

	return true
}
