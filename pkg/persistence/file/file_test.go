package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/persistence"
)

func newStore(t *testing.T) *Persistence {
	t.Helper()

	return NewPersistence(t.TempDir())
}

func record(id, job string, startedAt time.Time) *models.RunRecord {
	return &models.RunRecord{
		ID:          id,
		JobName:     job,
		BuildNumber: 1,
		BuildResult: models.ResultSuccess,
		Succeeded:   true,
		StartedAt:   startedAt,
		FinishedAt:  startedAt.Add(time.Minute),
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	saved := record("run-1a2b3c4d", "app", time.Now().UTC().Truncate(time.Second))
	saved.FinalResult = models.ResultUnstable
	saved.Error = "scripts group 1 aborted the run: boom"

	require.NoError(t, store.SaveRun(ctx, saved))

	loaded, err := store.RunByID(ctx, "run-1a2b3c4d")

	require.NoError(t, err)
	assert.Equal(t, saved.JobName, loaded.JobName)
	assert.Equal(t, saved.FinalResult, loaded.FinalResult)
	assert.Equal(t, saved.Error, loaded.Error)
	assert.True(t, saved.StartedAt.Equal(loaded.StartedAt))
}

func TestSaveRunRequiresID(t *testing.T) {
	store := newStore(t)

	err := store.SaveRun(context.Background(), &models.RunRecord{JobName: "app"})

	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrInvalidRunRecord)
}

func TestSaveRunReplacesExisting(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first := record("run-1a2b3c4d", "app", time.Now().UTC())
	require.NoError(t, store.SaveRun(ctx, first))

	first.Succeeded = false
	first.FinalResult = models.ResultFailure
	require.NoError(t, store.SaveRun(ctx, first))

	loaded, err := store.RunByID(ctx, "run-1a2b3c4d")

	require.NoError(t, err)
	assert.False(t, loaded.Succeeded)
	assert.Equal(t, models.ResultFailure, loaded.FinalResult)
}

func TestRunByIDNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.RunByID(context.Background(), "run-missing")

	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunsSortsFiltersAndPaginates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	require.NoError(t, store.SaveRun(ctx, record("run-aaaaaaaa", "app", base)))
	require.NoError(t, store.SaveRun(ctx, record("run-bbbbbbbb", "app", base.Add(10*time.Minute))))
	require.NoError(t, store.SaveRun(ctx, record("run-cccccccc", "other", base.Add(20*time.Minute))))
	require.NoError(t, store.SaveRun(ctx, record("run-dddddddd", "app", base.Add(30*time.Minute))))

	all, err := store.Runs(ctx, persistence.ListRunsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "run-dddddddd", all[0].ID)
	assert.Equal(t, "run-aaaaaaaa", all[3].ID)

	app, err := store.Runs(ctx, persistence.ListRunsOptions{JobName: "app"})
	require.NoError(t, err)
	require.Len(t, app, 3)

	page, err := store.Runs(ctx, persistence.ListRunsOptions{JobName: "app", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-aaaaaaaa", page[0].ID)

	empty, err := store.Runs(ctx, persistence.ListRunsOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRunsEmptyStore(t *testing.T) {
	store := newStore(t)

	runs, err := store.Runs(context.Background(), persistence.ListRunsOptions{})

	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRun(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, record("run-1a2b3c4d", "app", time.Now().UTC())))
	require.NoError(t, store.DeleteRun(ctx, "run-1a2b3c4d"))

	_, err := store.RunByID(ctx, "run-1a2b3c4d")
	assert.True(t, persistence.IsRunNotFound(err))

	err = store.DeleteRun(ctx, "run-1a2b3c4d")
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestPruneRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveRun(ctx, record("run-old00001", "app", now.Add(-48*time.Hour))))
	require.NoError(t, store.SaveRun(ctx, record("run-old00002", "app", now.Add(-36*time.Hour))))
	require.NoError(t, store.SaveRun(ctx, record("run-fresh001", "app", now)))

	pruned, err := store.PruneRuns(ctx, now.Add(-24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	remaining, err := store.Runs(ctx, persistence.ListRunsOptions{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "run-fresh001", remaining[0].ID)
}

func TestHealthCheck(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/postbuild-test")
	assert.Error(t, missing.HealthCheck(context.Background()))
}
