package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type store interface {
	Get(ctx context.Context, profileID string) (*models.Snapshot, error)
	Put(ctx context.Context, snap *models.Snapshot) error
	Delete(ctx context.Context, profileID string) error
}

func stores(t *testing.T) map[string]store {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return map[string]store{
		"sqlite": s,
		"memory": NewMemory(),
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			snap, err := s.Get(context.Background(), "nobody")
			require.NoError(t, err)
			assert.Nil(t, snap)
		})
	}
}

func TestStore_PutGetDelete(t *testing.T) {
	t.Parallel()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snap := testutils.Snapshot(testutils.Time(0))
			snap.Revision = 4
			snap.Item("avocado").Notes = "loved it"

			require.NoError(t, s.Put(ctx, snap))

			got, err := s.Get(ctx, testutils.ProfileID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, int64(4), got.Revision)
			assert.Equal(t, "loved it", got.Items["avocado"].Notes)
			assert.Equal(t, testutils.ShareToken, got.ShareToken)

			snap.Revision = 5
			snap.Item("avocado").Notes = "changed"
			require.NoError(t, s.Put(ctx, snap))
			got, err = s.Get(ctx, testutils.ProfileID)
			require.NoError(t, err)
			assert.Equal(t, int64(5), got.Revision)
			assert.Equal(t, "changed", got.Items["avocado"].Notes)

			require.NoError(t, s.Delete(ctx, testutils.ProfileID))
			got, err = s.Get(ctx, testutils.ProfileID)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_NoSharedState(t *testing.T) {
	t.Parallel()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snap := testutils.Snapshot(testutils.Time(0))
			require.NoError(t, s.Put(ctx, snap))

			snap.Item("avocado").Notes = "mutated after put"
			got, err := s.Get(ctx, testutils.ProfileID)
			require.NoError(t, err)
			assert.Empty(t, got.Items["avocado"].Notes)

			got.Item("banana").Hidden = true
			again, err := s.Get(ctx, testutils.ProfileID)
			require.NoError(t, err)
			assert.False(t, again.Items["banana"].Hidden)
		})
	}
}

func TestSQLite_Profiles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	calls := 0
	s.now = func() time.Time { calls++; return testutils.Time(calls) }

	for _, id := range []string{"first", "second"} {
		snap := testutils.Snapshot(testutils.Time(0))
		snap.ProfileID = id
		require.NoError(t, s.Put(ctx, snap))
	}

	ids, err := s.Profiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, ids)
}

func TestSQLite_Reopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	snap := testutils.Snapshot(testutils.Time(0))
	snap.Revision = 2
	require.NoError(t, s.Put(ctx, snap))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, err := s.Get(ctx, testutils.ProfileID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Revision)
}
