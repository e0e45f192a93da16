// Package protocol defines the contracts between the processor and pluggable
// build step implementations.
package protocol

import (
	"context"
	"log/slog"

	"github.com/cihooks/postbuild/pkg/models"
)

// Step is one delegated build step inside a step group. Execute reports
// false when the step ran and reported failure, which aborts the remaining
// post-build work through ordinary control flow. A non-nil error signals an
// infrastructure problem and aborts the whole run.
type Step interface {
	Execute(ctx context.Context, build *models.BuildContext, logger *slog.Logger) (bool, error)
}

// StepFactory creates Step instances from their raw configuration.
type StepFactory interface {
	Create(config map[string]any) (Step, error)
	ID() string
}
