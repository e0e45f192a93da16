package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/persistence"
)

// RunRepository handles run history database operations.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// List returns run records ordered by start time, newest first.
func (r *RunRepository) List(ctx context.Context, opts persistence.ListRunsOptions) ([]*models.RunRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	query := `
		SELECT
			id
		  , job_name
		  , build_number
		  , build_result
		  , final_result
		  , succeeded
		  , error
		  , started_at
		  , finished_at
		FROM runs
		WHERE ($1 = '' OR job_name = $1)
		ORDER BY started_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, opts.JobName, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func(ctx context.Context, r *RunRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	records := make([]*models.RunRecord, 0)

	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return records, nil
}

// GetByID returns a single run record by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.RunRecord, error) {
	query := `
		SELECT
			id
		  , job_name
		  , build_number
		  , build_result
		  , final_result
		  , succeeded
		  , error
		  , started_at
		  , finished_at
		FROM runs
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	record, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	return record, nil
}

// Save writes a run record, replacing any previous record with the same ID.
func (r *RunRepository) Save(ctx context.Context, record *models.RunRecord) error {
	if record.ID == "" {
		return persistence.NewRunError("SaveRun", "", persistence.ErrInvalidRunRecord)
	}

	query := `
		INSERT INTO runs (id, job_name, build_number,
build_result, final_result, succeeded, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			job_name = EXCLUDED.job_name,
			build_number = EXCLUDED.build_number,
			build_result = EXCLUDED.build_result,
			final_result = EXCLUDED.final_result,
			succeeded = EXCLUDED.succeeded,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.JobName,
		record.BuildNumber,
		record.BuildResult,
		record.FinalResult,
		record.Succeeded,
		record.Error,
		record.StartedAt,
		record.FinishedAt,
	)
	if err != nil {
		return persistence.NewRunError("SaveRun", record.ID, err)
	}

	return nil
}

// Delete removes a run record from the database.
func (r *RunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewRunError("DeleteRun", id, persistence.ErrRunNotFound)
	}

	return nil
}

// Prune deletes run records that finished before the given time and returns
// how many were removed.
func (r *RunRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE finished_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	record := &models.RunRecord{}

	err := row.Scan(
		&record.ID,
		&record.JobName,
		&record.BuildNumber,
		&record.BuildResult,
		&record.FinalResult,
		&record.Succeeded,
		&record.Error,
		&record.StartedAt,
		&record.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	return record, nil
}
