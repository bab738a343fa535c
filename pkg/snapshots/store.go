package snapshots

import (
	"context"
	"database/sql"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when no row exists for the requested key.
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt is returned when a stored row can't be decoded.
	ErrCorrupt = errors.New("stored snapshot is corrupt")
)

// Record is one row of the snapshots table.
type Record struct {
	bun.BaseModel `bun:"table:snapshots,alias:s" tstype:"-"`

	ProfileID  string    `bun:",pk" json:"profile_id"`
	ShareToken string    `bun:",pk" json:"share_token"`
	Revision   int64     `json:"revision"`
	Data       string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Snapshot *models.Snapshot `bun:"-" json:"snapshot,omitempty"`
}

// decode parses Data into Snapshot and stamps the row's identity and
// revision onto it, since those columns are authoritative.
func (r *Record) decode() error {
	snap, err := models.DecodeSnapshot([]byte(r.Data))
	if err != nil {
		return errors.Wrapf(ErrCorrupt, "profile %q: %v", r.ProfileID, err)
	}
	snap.ProfileID = r.ProfileID
	snap.ShareToken = r.ShareToken
	snap.Revision = r.Revision
	r.Snapshot = snap
	return nil
}

type Store struct {
	db  *bun.DB
	now func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the row for the pair. With an empty profileID it returns the
// token's most recently updated row.
func (s *Store) Get(ctx context.Context, shareToken, profileID string) (*Record, error) {
	return get(ctx, s.db, shareToken, profileID)
}

func get(ctx context.Context, db bun.IDB, shareToken, profileID string) (*Record, error) {
	rec := &Record{}
	q := db.NewSelect().
		Model(rec).
		Where("s.share_token = ?", shareToken)
	if profileID != "" {
		q = q.Where("s.profile_id = ?", profileID)
	} else {
		q = q.Order("s.updated_at DESC").Limit(1)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	if err := rec.decode(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Upsert replaces the whole row for the pair.
func (s *Store) Upsert(ctx context.Context, profileID, shareToken string, snap *models.Snapshot, revision int64) error {
	data, err := snap.Encode()
	if err != nil {
		return err
	}
	now := s.now()
	rec := &Record{
		ProfileID:  profileID,
		ShareToken: shareToken,
		Revision:   revision,
		Data:       string(data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = s.db.NewInsert().
		Model(rec).
		On("CONFLICT (profile_id, share_token) DO UPDATE").
		Set("revision = EXCLUDED.revision").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

// SwapFunc builds the snapshot to store at the given revision.
type SwapFunc func(revision int64) (*models.Snapshot, error)

type SwapResult struct {
	// Created is set when the row didn't exist and was written at revision 1.
	Created bool
	// Conflict is set when baseRevision didn't match. Record then holds the
	// untouched stored row.
	Conflict bool
	Record   *Record
}

// CompareAndSwap writes the snapshot built by next when the stored revision
// equals baseRevision, or creates the row at revision 1 when it doesn't exist
// yet. Losing a race against another writer is reported as a conflict.
func (s *Store) CompareAndSwap(ctx context.Context, profileID, shareToken string, baseRevision int64, next SwapFunc) (*SwapResult, error) {
	var result *SwapResult

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := get(ctx, tx, shareToken, profileID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if current == nil {
			created, err := s.insert(ctx, tx, profileID, shareToken, next)
			if err != nil {
				return err
			}
			if created != nil {
				result = &SwapResult{Created: true, Record: created}
				return nil
			}
			return s.conflict(ctx, tx, profileID, shareToken, &result)
		}

		if current.Revision != baseRevision {
			result = &SwapResult{Conflict: true, Record: current}
			return nil
		}

		updated, err := s.update(ctx, tx, current, next)
		if err != nil {
			return err
		}
		if updated == nil {
			return s.conflict(ctx, tx, profileID, shareToken, &result)
		}
		result = &SwapResult{Record: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// insert returns nil without error when another writer created the row
// first.
func (s *Store) insert(ctx context.Context, tx bun.Tx, profileID, shareToken string, next SwapFunc) (*Record, error) {
	snap, err := next(1)
	if err != nil {
		return nil, err
	}
	data, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &Record{
		ProfileID:  profileID,
		ShareToken: shareToken,
		Revision:   1,
		Data:       string(data),
		CreatedAt:  now,
		UpdatedAt:  now,
		Snapshot:   snap,
	}
	res, err := tx.NewInsert().
		Model(rec).
		On("CONFLICT (profile_id, share_token) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n == 0 {
		return nil, nil
	}
	return rec, nil
}

func (s *Store) update(ctx context.Context, tx bun.Tx, current *Record, next SwapFunc) (*Record, error) {
	revision := current.Revision + 1
	snap, err := next(revision)
	if err != nil {
		return nil, err
	}
	data, err := snap.Encode()
	if err != nil {
		return nil, err
	}
	now := s.now()
	res, err := tx.NewUpdate().
		Model((*Record)(nil)).
		Set("revision = ?", revision).
		Set("data = ?", string(data)).
		Set("updated_at = ?", now).
		Where("profile_id = ?", current.ProfileID).
		Where("share_token = ?", current.ShareToken).
		Where("revision = ?", current.Revision).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if n == 0 {
		return nil, nil
	}
	return &Record{
		ProfileID:  current.ProfileID,
		ShareToken: current.ShareToken,
		Revision:   revision,
		Data:       string(data),
		CreatedAt:  current.CreatedAt,
		UpdatedAt:  now,
		Snapshot:   snap,
	}, nil
}

func (s *Store) conflict(ctx context.Context, tx bun.Tx, profileID, shareToken string, result **SwapResult) error {
	current, err := get(ctx, tx, shareToken, profileID)
	if err != nil {
		return err
	}
	*result = &SwapResult{Conflict: true, Record: current}
	return nil
}

// Delete removes the row for the pair. It returns ErrNotFound when there was
// nothing to delete.
func (s *Store) Delete(ctx context.Context, shareToken, profileID string) error {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("share_token = ?", shareToken).
		Where("profile_id = ?", profileID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOne removes every row for the profile, whatever its token.
func (s *Store) DeleteOne(ctx context.Context, profileID string) (int, error) {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("profile_id = ?", profileID).
		Exec(ctx)
	return rowsAffected(res, err)
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	res, err := s.db.NewDelete().
		Model((*Record)(nil)).
		Where("1 = 1").
		Exec(ctx)
	return rowsAffected(res, err)
}

type ListOptions struct {
	ShareToken *string
	Limit      *int
	Offset     *int
}

// List returns rows ordered by most recent write, with the total count
// ignoring limit and offset. Snapshot bodies aren't decoded.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*Record, int, error) {
	var records []*Record

	q := s.db.NewSelect().
		Model(&records).
		Order("s.updated_at DESC", "s.profile_id ASC")
	if opts.ShareToken != nil {
		q = q.Where("s.share_token = ?", *opts.ShareToken)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return records, total, nil
}

func rowsAffected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(n), nil
}
