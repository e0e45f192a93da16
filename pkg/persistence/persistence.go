// Package persistence provides the storage abstraction for run history.
package persistence

import (
	"context"
	"time"

	"github.com/cihooks/postbuild/pkg/models"
)

// ListRunsOptions filters and pages the run history. A zero value lists the
// most recent runs across every job.
type ListRunsOptions struct {
	JobName string // only runs of this job when non-empty
	Limit   int
	Offset  int
}

type Persistence interface {
	Runs(ctx context.Context, opts ListRunsOptions) ([]*models.RunRecord, error)
	SaveRun(ctx context.Context, record *models.RunRecord) error
	RunByID(ctx context.Context, id string) (*models.RunRecord, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, before time.Time) (int, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
