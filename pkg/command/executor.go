package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cihooks/postbuild/pkg/models"
)

// ErrNoScriptPath indicates a command line that resolved to zero tokens.
var ErrNoScriptPath = errors.New("no script path in command")

// Executor runs script files in the build workspace. The script content is
// copied to a temporary file inside the workspace and handed to the platform
// shell, so the configured script needs no execute permission and may live
// outside the workspace.
type Executor struct {
	logger *slog.Logger
	output io.Writer
}

// NewExecutor creates an executor that streams process output to the given
// writer.
func NewExecutor(logger *slog.Logger, output io.Writer) *Executor {
	return &Executor{logger: logger, output: output}
}

// Run executes the command's script with its parameters, working directory
// set to the build workspace and the build environment exported. It returns
// the process exit code. Launch and interruption problems are returned as
// errors; a non-zero exit code is not an error.
func (e *Executor) Run(ctx context.Context, build *models.BuildContext, command *Command) (int, error) {
	if command.ScriptPath == "" {
		return 0, ErrNoScriptPath
	}

	scriptPath := command.ScriptPath
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(build.Workspace, scriptPath)
	}

	e.logger.InfoContext(ctx, "executing script", "script", scriptPath, "parameters", command.Parameters)

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		return 0, fmt.Errorf("failed to load script content: %w", err)
	}

	tempScript, err := writeTempScript(build.Workspace, content)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := os.Remove(tempScript); err != nil {
			e.logger.WarnContext(ctx, "failed to remove temporary script", "path", tempScript, "error", err)
		}
	}()

	argv := append(interpreterArgs(tempScript), command.Parameters...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = build.Workspace
	cmd.Env = build.Environ()
	cmd.Stdout = e.output
	cmd.Stderr = e.output

	err = cmd.Run()
	if ctx.Err() != nil {
		return 0, fmt.Errorf("script interrupted: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to launch script: %w", err)
	}

	return 0, nil
}

func writeTempScript(workspace string, content []byte) (string, error) {
	file, err := os.CreateTemp(workspace, "postbuild-*"+scriptSuffix())
	if err != nil {
		return "", fmt.Errorf("failed to create temporary script: %w", err)
	}

	_, err = file.Write(content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(file.Name())

		return "", fmt.Errorf("failed to write temporary script: %w", err)
	}

	return file.Name(), nil
}

func interpreterArgs(scriptFile string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/c", "call", scriptFile}
	}

	return []string{"/bin/sh", "-xe", scriptFile}
}

func scriptSuffix() string {
	if runtime.GOOS == "windows" {
		return ".bat"
	}

	return ".sh"
}
