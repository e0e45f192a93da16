// Package file provides the file-based run history store: one JSON document
// per run under <root>/runs. It suits single-host deployments and tests;
// anything bigger should use the PostgreSQL store.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system.
type Persistence struct {
	root string
}

// NewPersistence creates a file store rooted at the given directory. A
// file:// prefix is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (fp *Persistence) runsDir() string {
	return filepath.Join(fp.root, "runs")
}

func (fp *Persistence) runPath(id string) string {
	return filepath.Join(fp.runsDir(), id+".json")
}

// Runs returns the run history, most recent first, filtered and paginated
// in memory.
func (fp *Persistence) Runs(_ context.Context, opts persistence.ListRunsOptions) ([]*models.RunRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	jsonFiles, err := fs.Glob(os.DirFS(fp.runsDir()), "*.json")
	if err != nil {
		return nil, persistence.NewRunError("Runs", "", err)
	}

	records := make([]*models.RunRecord, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		record, err := fp.load(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if opts.JobName != "" && record.JobName != opts.JobName {
			continue
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if opts.Offset >= len(records) {
		return []*models.RunRecord{}, nil
	}

	end := opts.Offset + opts.Limit
	if end > len(records) {
		end = len(records)
	}

	return records[opts.Offset:end], nil
}

// SaveRun writes the record, replacing any previous document for the same
// run.
func (fp *Persistence) SaveRun(_ context.Context, record *models.RunRecord) error {
	if record.ID == "" {
		return persistence.NewRunError("SaveRun", "", persistence.ErrInvalidRunRecord)
	}

	if err := os.MkdirAll(fp.runsDir(), 0o755); err != nil {
		return persistence.NewRunError("SaveRun", record.ID, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return persistence.NewRunError("SaveRun", record.ID, err)
	}

	if err := os.WriteFile(fp.runPath(record.ID), data, 0o644); err != nil {
		return persistence.NewRunError("SaveRun", record.ID, err)
	}

	return nil
}

func (fp *Persistence) RunByID(_ context.Context, id string) (*models.RunRecord, error) {
	return fp.load(id)
}

func (fp *Persistence) DeleteRun(_ context.Context, id string) error {
	err := os.Remove(fp.runPath(id))
	if os.IsNotExist(err) {
		return persistence.NewRunError("DeleteRun", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return persistence.NewRunError("DeleteRun", id, err)
	}

	return nil
}

// PruneRuns deletes every run that finished before the cutoff and reports
// how many documents were removed.
func (fp *Persistence) PruneRuns(ctx context.Context, before time.Time) (int, error) {
	jsonFiles, err := fs.Glob(os.DirFS(fp.runsDir()), "*.json")
	if err != nil {
		return 0, persistence.NewRunError("PruneRuns", "", err)
	}

	pruned := 0

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		record, err := fp.load(id)
		if err != nil {
			return pruned, err
		}

		if !record.FinishedAt.Before(before) {
			continue
		}

		if err := fp.DeleteRun(ctx, id); err != nil {
			return pruned, err
		}

		pruned++
	}

	return pruned, nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For the file store there is nothing
// to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) load(id string) (*models.RunRecord, error) {
	data, err := os.ReadFile(fp.runPath(id))
	if os.IsNotExist(err) {
		return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	var record models.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, persistence.NewRunError("RunByID", id, fmt.Errorf("corrupt run document: %w", err))
	}

	return &record, nil
}
