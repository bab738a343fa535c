package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE snapshots (
				profile_id TEXT NOT NULL,
				share_token TEXT NOT NULL,
				revision INTEGER NOT NULL CHECK (revision > 0),
				data TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (profile_id, share_token)
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX idx_snapshots_share_token ON snapshots(share_token, updated_at)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS snapshots`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
