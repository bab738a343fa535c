// Package localstore keeps a device's copy of its profiles between runs.
package localstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type localSnapshot struct {
	bun.BaseModel `bun:"table:local_snapshots,alias:ls"`

	ProfileID  string    `bun:",pk"`
	ShareToken string    `bun:",notnull"`
	Revision   int64     `bun:",notnull"`
	Data       string    `bun:",notnull"`
	UpdatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// SQLite stores snapshots in a local_snapshots table, one row per profile.
type SQLite struct {
	db  *bun.DB
	own bool
	now func() time.Time
}

// OpenSQLite opens (and creates if needed) a store at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if path != ":memory:" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, errors.WithStack(err)
		}
	}

	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.own = true
	return s, nil
}

// NewSQLite uses an already open database. The caller keeps ownership of db.
func NewSQLite(ctx context.Context, db *bun.DB) (*SQLite, error) {
	_, err := db.NewCreateTable().
		Model((*localSnapshot)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

// Get returns nil without an error when the profile has no local copy.
func (s *SQLite) Get(ctx context.Context, profileID string) (*models.Snapshot, error) {
	row := new(localSnapshot)
	err := s.db.NewSelect().
		Model(row).
		Where("ls.profile_id = ?", profileID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	snap, err := models.DecodeSnapshot([]byte(row.Data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode local snapshot %s", profileID)
	}
	snap.Revision = row.Revision
	return snap, nil
}

func (s *SQLite) Put(ctx context.Context, snap *models.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return errors.WithStack(err)
	}

	row := &localSnapshot{
		ProfileID:  snap.ProfileID,
		ShareToken: snap.ShareToken,
		Revision:   snap.Revision,
		Data:       string(data),
		UpdatedAt:  s.now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(row).
		On("CONFLICT (profile_id) DO UPDATE").
		Set("share_token = EXCLUDED.share_token").
		Set("revision = EXCLUDED.revision").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

func (s *SQLite) Delete(ctx context.Context, profileID string) error {
	_, err := s.db.NewDelete().
		Model((*localSnapshot)(nil)).
		Where("profile_id = ?", profileID).
		Exec(ctx)
	return errors.WithStack(err)
}

// Profiles lists the stored profile IDs, most recently written first.
func (s *SQLite) Profiles(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*localSnapshot)(nil)).
		Column("profile_id").
		Order("updated_at DESC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ids, nil
}

// Close closes the database if the store opened it.
func (s *SQLite) Close() error {
	if !s.own {
		return nil
	}
	return errors.WithStack(s.db.Close())
}
