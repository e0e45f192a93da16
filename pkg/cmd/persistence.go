package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cihooks/postbuild/pkg/persistence"
	"github.com/cihooks/postbuild/pkg/persistence/file"
	"github.com/cihooks/postbuild/pkg/persistence/postgresql"
)

// NewPersistence picks the run store implementation from the URL scheme:
// postgres:// and postgresql:// open a database, anything else is treated as
// a directory for the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	}

	return file.NewPersistence(databaseURL), nil
}
