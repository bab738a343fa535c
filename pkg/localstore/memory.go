package localstore

import (
	"context"
	"sync"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// Memory is an in-process store. Values are cloned on the way in and out so
// callers never share state with it.
type Memory struct {
	mu    sync.Mutex
	snaps map[string]*models.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: map[string]*models.Snapshot{}}
}

func (m *Memory) Get(_ context.Context, profileID string) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps[profileID].Clone(), nil
}

func (m *Memory) Put(_ context.Context, snap *models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.ProfileID] = snap.Clone()
	return nil
}

func (m *Memory) Delete(_ context.Context, profileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, profileID)
	return nil
}
