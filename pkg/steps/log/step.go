// Package log provides the native build step that writes a message to the
// run log. Macro references in the message are resolved against the build
// environment.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/template"
)

type Step struct {
	message string
	level   string
}

func NewStep(config map[string]any) (*Step, error) {
	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, errors.New("missing required field 'message'")
	}

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Step{message: message, level: level}, nil
}

func (s *Step) Execute(ctx context.Context, build *models.BuildContext, logger *slog.Logger) (bool, error) {
	message, err := template.Expand(s.message, build.Vars())
	if err != nil {
		return false, fmt.Errorf("failed to render log message: %w", err)
	}

	switch s.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn", "warning":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return true, nil
}
