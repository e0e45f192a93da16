// Package engine evaluates Starlark post-build scripts in-process. Scripts
// observe the finished build through predeclared bindings and report failure
// by raising, typically with fail().
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"

	"github.com/cihooks/postbuild/pkg/command"
	"github.com/cihooks/postbuild/pkg/models"
)

// fileOptions relaxes the module-oriented defaults: post-build scripts are
// imperative snippets that want top-level control flow and reassignment.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Evaluator runs Starlark scripts against a finished build. Scripts that
// raise or fail to parse count as failed actions, not infrastructure
// problems; only interruption and unreadable script files surface as errors.
type Evaluator struct {
	logger *slog.Logger
	output io.Writer
}

// NewEvaluator creates an Evaluator. Script print output goes to output.
func NewEvaluator(logger *slog.Logger, output io.Writer) *Evaluator {
	return &Evaluator{logger: logger, output: output}
}

// EvaluateScript evaluates an inline snippet identified by name in logs and
// backtraces.
func (e *Evaluator) EvaluateScript(ctx context.Context, build *models.BuildContext, name, content string) (bool, error) {
	return e.evaluate(ctx, build, name, content, nil)
}

// EvaluateFile loads a script from the build workspace and evaluates it with
// the command parameters bound as args.
func (e *Evaluator) EvaluateFile(ctx context.Context, build *models.BuildContext, cmd *command.Command) (bool, error) {
	scriptPath := cmd.ScriptPath
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(build.Workspace, scriptPath)
	}

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return false, fmt.Errorf("failed to load script content: %w", err)
	}

	return e.evaluate(ctx, build, cmd.ScriptPath, string(content), cmd.Parameters)
}

// CheckSyntax parses and resolves a script without executing it, against the
// same bindings evaluation provides.
func CheckSyntax(name, content string) error {
	file, err := fileOptions.Parse(name, content, 0)
	if err != nil {
		return fmt.Errorf("script does not parse: %w", err)
	}

	err = resolve.FileOptions(fileOptions, file, predeclaredNames, starlark.Universe.Has)
	if err != nil {
		return fmt.Errorf("script does not resolve: %w", err)
	}

	return nil
}

func predeclaredNames(name string) bool {
	switch name {
	case "build", "env", "args":
		return true
	default:
		return false
	}
}

func (e *Evaluator) evaluate(ctx context.Context, build *models.BuildContext, name, content string, args []string) (bool, error) {
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(e.output, msg)
		},
	}

	stop := context.AfterFunc(ctx, func() {
		thread.Cancel("post-build run interrupted")
	})
	defer stop()

	e.logger.InfoContext(ctx, "evaluating script", "script", name)

	_, err := starlark.ExecFileOptions(fileOptions, thread, name, content, predeclared(build, args))

	if ctx.Err() != nil {
		return false, fmt.Errorf("script interrupted: %w", ctx.Err())
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		e.logger.ErrorContext(ctx, "script failed", "script", name, "error", evalErr.Msg, "backtrace", evalErr.Backtrace())
		return false, nil
	}

	if err != nil {
		e.logger.ErrorContext(ctx, "script is invalid", "script", name, "error", err)
		return false, nil
	}

	return true, nil
}

// predeclared exposes the finished build to scripts: a build struct with the
// job identity, the decorated environment as env, and positional parameters
// as args.
func predeclared(build *models.BuildContext, args []string) starlark.StringDict {
	vars := build.Vars()
	env := starlark.NewDict(len(vars))

	for _, key := range slices.Sorted(maps.Keys(vars)) {
		_ = env.SetKey(starlark.String(key), starlark.String(vars[key]))
	}

	argv := make([]starlark.Value, 0, len(args))
	for _, arg := range args {
		argv = append(argv, starlark.String(arg))
	}

	buildStruct := starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"job":       starlark.String(build.JobName),
		"number":    starlark.MakeInt(build.BuildNumber),
		"result":    starlark.String(string(build.Result)),
		"built_on":  starlark.String(build.BuiltOn),
		"workspace": starlark.String(build.Workspace),
	})

	return starlark.StringDict{
		"build": buildStruct,
		"env":   env,
		"args":  starlark.NewList(argv),
	}
}
