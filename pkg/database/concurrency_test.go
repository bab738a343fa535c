package database

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jdmarquezdev/tribitr-web/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConfig uses a file database so concurrent callers really share one
// SQLite file. Retries are switched off so any lock contention would surface.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "test.db")
	cfg.DatabaseMaxRetries = 0
	cfg.DatabaseBusyTimeout = 1_000_000
	return cfg
}

func TestNew_SingleConnection(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	require.NoError(t, err)
	assert.Equal(t, "wal", mode)
}

func TestConcurrentRevisionBumps(t *testing.T) {
	t.Parallel()

	db, err := New(newTestConfig(t))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE counters (
		id TEXT PRIMARY KEY,
		revision INTEGER NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO counters (id, revision) VALUES ('p', 0)")
	require.NoError(t, err)

	const numWorkers = 16
	const bumpsPerWorker = 25

	var wg sync.WaitGroup
	var errorCount atomic.Int32
	errs := make(chan error, numWorkers*bumpsPerWorker)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < bumpsPerWorker; i++ {
				if _, err := db.Exec("UPDATE counters SET revision = revision + 1 WHERE id = 'p'"); err != nil {
					errorCount.Add(1)
					errs <- fmt.Errorf("worker %d bump %d: %w", workerID, i, err)
				}
			}
		}(w)
	}

	wg.Wait()
	close(errs)

	var all []error
	for err := range errs {
		all = append(all, err)
	}
	assert.Empty(t, all)
	assert.Equal(t, int32(0), errorCount.Load())

	var revision int
	err = db.QueryRow("SELECT revision FROM counters WHERE id = 'p'").Scan(&revision)
	require.NoError(t, err)
	assert.Equal(t, numWorkers*bumpsPerWorker, revision)
}
