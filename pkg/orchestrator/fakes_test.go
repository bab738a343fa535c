package orchestrator

import (
	"context"
	"sync"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// fakeRemote mimics the server's revision rules in memory.
type fakeRemote struct {
	mu     sync.Mutex
	snap   *models.Snapshot
	pulls  int
	bases  []int64
	saved  int
	events chan string

	pullErr error
	pushErr error
	// conflicts makes the next n pushes conflict as if another device
	// wrote first.
	conflicts int

	pullGate chan struct{}
	pushGate chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{events: make(chan string, 16)}
}

// Pull answers with the server copy as it was when the request arrived, so a
// gated pull delivers a stale response once released.
func (f *fakeRemote) Pull(ctx context.Context, _, _ string) (*models.Snapshot, error) {
	f.mu.Lock()
	f.pulls++
	gate := f.pullGate
	answer := f.snap.Clone()
	f.mu.Unlock()
	f.signal("pull")

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	return answer, nil
}

func (f *fakeRemote) Push(ctx context.Context, base int64, snap *models.Snapshot) (*models.Snapshot, bool, error) {
	f.mu.Lock()
	f.bases = append(f.bases, base)
	gate := f.pushGate
	f.mu.Unlock()
	f.signal("push")

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return nil, false, f.pushErr
	}
	if f.conflicts > 0 && f.snap != nil {
		f.conflicts--
		f.snap.Revision++
		return f.snap.Clone(), true, nil
	}
	if f.snap == nil {
		f.snap = snap.Clone()
		f.snap.Revision = 1
		f.saved++
		return f.snap.Clone(), false, nil
	}
	if base != f.snap.Revision {
		return f.snap.Clone(), true, nil
	}
	next := snap.Clone()
	next.Revision = f.snap.Revision + 1
	f.snap = next
	f.saved++
	return f.snap.Clone(), false, nil
}

func (f *fakeRemote) signal(event string) {
	select {
	case f.events <- event:
	default:
	}
}

func (f *fakeRemote) server() *models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Clone()
}

func (f *fakeRemote) pushBases() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.bases...)
}

func (f *fakeRemote) pullCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pulls
}

// edit changes the server copy as another device would.
func (f *fakeRemote) edit(fn func(snap *models.Snapshot)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.snap)
	f.snap.Revision++
}
