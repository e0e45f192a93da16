// Package postgresql stores run history in PostgreSQL.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cihooks/postbuild/pkg/models"
	"github.com/cihooks/postbuild/pkg/persistence"
	"github.com/cihooks/postbuild/pkg/persistence/sqlbase"

	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db      *sql.DB
	logger  *slog.Logger
	runRepo *RunRepository
}

// NewPersistence opens the database, runs pending migrations and returns a
// ready persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	runRepo := NewRunRepository(database, logger)

	postgres := &Persistence{
		db:      database,
		logger:  logger,
		runRepo: runRepo,
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Runs returns run records matching the given options.
func (p *Persistence) Runs(ctx context.Context, opts persistence.ListRunsOptions) ([]*models.RunRecord, error) {
	return p.runRepo.List(ctx, opts)
}

// RunByID returns a run record by its ID.
func (p *Persistence) RunByID(ctx context.Context, id string) (*models.RunRecord, error) {
	return p.runRepo.GetByID(ctx, id)
}

// SaveRun saves a run record to the database.
func (p *Persistence) SaveRun(ctx context.Context, record *models.RunRecord) error {
	return p.runRepo.Save(ctx, record)
}

// DeleteRun removes a run record from the database.
func (p *Persistence) DeleteRun(ctx context.Context, id string) error {
	return p.runRepo.Delete(ctx, id)
}

// PruneRuns deletes run records that finished before the given time.
func (p *Persistence) PruneRuns(ctx context.Context, before time.Time) (int, error) {
	return p.runRepo.Prune(ctx, before)
}
