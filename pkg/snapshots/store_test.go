package snapshots

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/testutils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(snap *models.Snapshot) SwapFunc {
	return func(revision int64) (*models.Snapshot, error) {
		out := snap.Clone()
		out.Revision = revision
		return out, nil
	}
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(testutils.NewDB(t))

	_, err := store.Get(context.Background(), testutils.ShareToken, testutils.ProfileID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	snap := testutils.Snapshot(testutils.Time(0))

	require.NoError(t, store.Upsert(ctx, testutils.ProfileID, testutils.ShareToken, snap, 4))

	rec, err := store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), rec.Revision)
	assert.Equal(t, int64(4), rec.Snapshot.Revision)
	assert.Equal(t, snap.Items, rec.Snapshot.Items)

	snap.Item("avocado").Notes = "second write"
	require.NoError(t, store.Upsert(ctx, testutils.ProfileID, testutils.ShareToken, snap, 5))

	rec, err = store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Revision)
	assert.Equal(t, "second write", rec.Snapshot.Items["avocado"].Notes)
}

func TestGet_WithoutProfileReturnsLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	store.now = func() time.Time { return testutils.Time(0) }
	require.NoError(t, store.Upsert(ctx, "older", testutils.ShareToken, testutils.Snapshot(testutils.Time(0)), 1))
	store.now = func() time.Time { return testutils.Time(5) }
	require.NoError(t, store.Upsert(ctx, "newer", testutils.ShareToken, testutils.Snapshot(testutils.Time(0)), 1))

	rec, err := store.Get(ctx, testutils.ShareToken, "")
	require.NoError(t, err)
	assert.Equal(t, "newer", rec.ProfileID)
	assert.Equal(t, "newer", rec.Snapshot.ProfileID)
}

func TestGet_CorruptRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db := testutils.NewDB(t)
	store := NewStore(db)
	_, err := db.Exec(`INSERT INTO snapshots (profile_id, share_token, revision, data, created_at, updated_at)
		VALUES (?, ?, 1, '{not json', ?, ?)`, testutils.ProfileID, testutils.ShareToken, testutils.Time(0), testutils.Time(0))
	require.NoError(t, err)

	_, err = store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestCompareAndSwap_CreatesAtRevisionOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	snap := testutils.Snapshot(testutils.Time(0))

	for _, base := range []int64{0, 7} {
		profile := testutils.ProfileID
		if base != 0 {
			profile = "other-profile"
		}
		res, err := store.CompareAndSwap(ctx, profile, testutils.ShareToken, base, build(snap))
		require.NoError(t, err)
		assert.True(t, res.Created)
		assert.False(t, res.Conflict)
		assert.Equal(t, int64(1), res.Record.Revision)
	}
}

func TestCompareAndSwap_RevisionsIncreaseByOne(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	snap := testutils.Snapshot(testutils.Time(0))

	var base int64
	for want := int64(1); want <= 5; want++ {
		res, err := store.CompareAndSwap(ctx, testutils.ProfileID, testutils.ShareToken, base, build(snap))
		require.NoError(t, err)
		require.False(t, res.Conflict)
		assert.Equal(t, want, res.Record.Revision)
		assert.Equal(t, want, res.Record.Snapshot.Revision)
		base = res.Record.Revision
	}

	rec, err := store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Revision)
}

func TestCompareAndSwap_ConflictLeavesRowUntouched(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	original := testutils.Snapshot(testutils.Time(0))
	original.Item("avocado").Notes = "stored"
	require.NoError(t, store.Upsert(ctx, testutils.ProfileID, testutils.ShareToken, original, 3))
	before, err := store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	require.NoError(t, err)

	incoming := testutils.Snapshot(testutils.Time(1))
	incoming.Item("avocado").Notes = "incoming"

	called := false
	for _, base := range []int64{0, 2, 4} {
		res, err := store.CompareAndSwap(ctx, testutils.ProfileID, testutils.ShareToken, base, func(revision int64) (*models.Snapshot, error) {
			called = true
			return incoming, nil
		})
		require.NoError(t, err)
		assert.True(t, res.Conflict)
		assert.Equal(t, int64(3), res.Record.Revision)
		assert.Equal(t, "stored", res.Record.Snapshot.Items["avocado"].Notes)
	}
	assert.False(t, called)

	after, err := store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCompareAndSwap_BuildErrorAbortsWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	boom := errors.New("boom")

	_, err := store.CompareAndSwap(ctx, testutils.ProfileID, testutils.ShareToken, 0, func(int64) (*models.Snapshot, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, testutils.ShareToken, testutils.ProfileID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompareAndSwap_ConcurrentWritersOneWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewFileDB(t))
	snap := testutils.Snapshot(testutils.Time(0))
	res, err := store.CompareAndSwap(ctx, testutils.ProfileID, testutils.ShareToken, 0, build(snap))
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Record.Revision)

	const writers = 8
	results := make([]*SwapResult, writers)
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.CompareAndSwap(ctx, testutils.ProfileID, testutils.ShareToken, 1, build(snap))
		}(i)
	}
	wg.Wait()

	accepted := 0
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		if !results[i].Conflict {
			accepted++
			assert.Equal(t, int64(2), results[i].Record.Revision)
		} else {
			assert.Equal(t, int64(2), results[i].Record.Revision)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestDeleteAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewStore(testutils.NewDB(t))
	snap := testutils.Snapshot(testutils.Time(0))
	require.NoError(t, store.Upsert(ctx, "p1", "token-aaaaaaaa", snap, 1))
	require.NoError(t, store.Upsert(ctx, "p2", "token-aaaaaaaa", snap, 1))
	require.NoError(t, store.Upsert(ctx, "p1", "token-bbbbbbbb", snap, 1))

	token := "token-aaaaaaaa"
	limit := 1
	records, total, err := store.List(ctx, ListOptions{ShareToken: &token, Limit: &limit})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, records, 1)

	err = store.Delete(ctx, "token-aaaaaaaa", "p2")
	require.NoError(t, err)
	err = store.Delete(ctx, "token-aaaaaaaa", "p2")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := store.DeleteOne(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Upsert(ctx, "p3", "token-cccccccc", snap, 1))
	n, err = store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, total, err = store.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
