package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const (
	tableName      = "schema_migrations"
	locksTableName = "schema_migration_locks"
)

// Migrations holds every schema change for the snapshots database. Files in
// this package register themselves from init.
var Migrations = migrate.NewMigrations()

// NewMigrator returns a migrator over Migrations. A migration is only marked
// applied once its up function succeeds, so a failed run can be retried.
func NewMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations,
		migrate.WithTableName(tableName),
		migrate.WithLocksTableName(locksTableName),
		migrate.WithMarkAppliedOnSuccess(true),
	)
}

// BringUpToDate applies every unapplied migration. The returned group has a
// zero ID when there was nothing to do.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := NewMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Migrate(ctx)
	return group, errors.WithStack(err)
}
