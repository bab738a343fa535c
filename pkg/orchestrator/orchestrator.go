// Package orchestrator keeps one profile's local copy in sync with the
// server: debounced pushes after edits, periodic and on-focus pulls, and a
// merge-and-retry-once path for conflicts.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jdmarquezdev/tribitr-web/pkg/clock"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

const (
	DefaultDebounce = 1200 * time.Millisecond
	DefaultInterval = 5 * time.Minute
	DefaultTimeout  = 8 * time.Second
)

var (
	// ErrConflictRetry is recorded when a push conflicts again after merging
	// and retrying once. The next trigger starts over.
	ErrConflictRetry = errors.New("push conflicted again after merge")
	ErrStopped       = errors.New("orchestrator stopped")
)

// Remote is the server side of the protocol.
type Remote interface {
	// Pull returns nil without an error when the server has no copy.
	Pull(ctx context.Context, shareToken, profileID string) (*models.Snapshot, error)
	// Push returns the accepted snapshot, or the server's current one with
	// conflict set when baseRevision was stale.
	Push(ctx context.Context, baseRevision int64, snap *models.Snapshot) (*models.Snapshot, bool, error)
}

// LocalStore persists the device's copy. Get returns nil without an error
// when there is none.
type LocalStore interface {
	Get(ctx context.Context, profileID string) (*models.Snapshot, error)
	Put(ctx context.Context, snap *models.Snapshot) error
	Delete(ctx context.Context, profileID string) error
}

type Options struct {
	Debounce time.Duration
	Interval time.Duration
	Timeout  time.Duration
	Clock    clock.Clock
}

type State string

const (
	StateIdle          State = "idle"
	StatePulling       State = "pulling"
	StateMerging       State = "merging"
	StatePushing       State = "pushing"
	StateConflictRetry State = "conflict_retry"
)

type Status struct {
	PullState State
	PushState State
	// Revision is the last server revision this device has seen.
	Revision int64
	// Pending is set while local edits haven't been accepted by the server.
	Pending    bool
	LastSyncAt *time.Time
	// Err is the last sync failure, cleared by the next success.
	Err error
}

func (s Status) CouldNotSync() bool {
	return s.Err != nil
}

type Orchestrator struct {
	profileID  string
	shareToken string
	remote     Remote
	local      LocalStore
	clock      clock.Clock
	opts       Options
	log        logger.Logger

	// localMu serializes read-modify-write cycles on the local store. It's
	// always taken before mu.
	localMu sync.Mutex

	mu         sync.Mutex
	pullState  State
	pushState  State
	generation uint64
	pending    bool
	revision   int64
	lastSyncAt *time.Time
	lastErr    error
	debounce   clock.Timer
	periodic   clock.Timer
	active     bool
	stopped    bool
}

func New(profileID, shareToken string, remote Remote, local LocalStore, opts Options) *Orchestrator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}

	return &Orchestrator{
		profileID:  profileID,
		shareToken: shareToken,
		remote:     remote,
		local:      local,
		clock:      opts.Clock,
		opts:       opts,
		log:        logger.New().Root(logger.Data{"profile_id": profileID}),
		pullState:  StateIdle,
		pushState:  StateIdle,
	}
}

// Activate runs the initial pull and starts the periodic pull timer.
func (o *Orchestrator) Activate(ctx context.Context) error {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return ErrStopped
	}
	if !o.active {
		o.active = true
		o.periodic = o.clock.AfterFunc(o.opts.Interval, o.onTick)
	}
	o.mu.Unlock()

	local, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		return errors.WithStack(err)
	}
	if local != nil {
		o.mu.Lock()
		o.revision = local.Revision
		o.mu.Unlock()
	}

	return o.Pull(ctx)
}

// Stop cancels pending timers. In-flight calls finish but nothing new
// starts.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	if o.debounce != nil {
		o.debounce.Stop()
		o.debounce = nil
	}
	if o.periodic != nil {
		o.periodic.Stop()
		o.periodic = nil
	}
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	var last *time.Time
	if o.lastSyncAt != nil {
		t := *o.lastSyncAt
		last = &t
	}
	return Status{
		PullState:  o.pullState,
		PushState:  o.pushState,
		Revision:   o.revision,
		Pending:    o.pending,
		LastSyncAt: last,
		Err:        o.lastErr,
	}
}

// Snapshot returns the current local copy, or nil if there is none yet.
func (o *Orchestrator) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snap, err := o.local.Get(ctx, o.profileID)
	return snap, errors.WithStack(err)
}

// Now is the orchestrator's clock, for stamping edits passed to Mutate.
func (o *Orchestrator) Now() time.Time {
	return o.clock.Now().UTC()
}

// Mutate applies fn to the local copy, saves it and schedules a push. fn is
// responsible for bumping the UpdatedAt stamps of whatever it changes.
func (o *Orchestrator) Mutate(ctx context.Context, fn func(snap *models.Snapshot)) (*models.Snapshot, error) {
	o.localMu.Lock()
	snap, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		o.localMu.Unlock()
		return nil, errors.WithStack(err)
	}
	if snap == nil {
		snap = models.NewSnapshot(o.profileID, o.shareToken, o.Now())
	}
	fn(snap)
	if err := o.local.Put(ctx, snap); err != nil {
		o.localMu.Unlock()
		return nil, errors.WithStack(err)
	}
	o.mu.Lock()
	o.generation++
	o.pending = true
	o.mu.Unlock()
	o.localMu.Unlock()

	o.SchedulePush()
	return snap.Clone(), nil
}

// SchedulePush (re)starts the debounce timer; the push happens once edits
// have been quiet for the debounce window.
func (o *Orchestrator) SchedulePush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return
	}
	if o.debounce != nil {
		o.debounce.Stop()
	}
	o.debounce = o.clock.AfterFunc(o.opts.Debounce, o.onDebounce)
}

// Focus re-pulls, for when the app comes back to the foreground.
func (o *Orchestrator) Focus(ctx context.Context) error {
	return o.Pull(ctx)
}

// SyncNow pulls and then pushes right away if anything is left to send.
func (o *Orchestrator) SyncNow(ctx context.Context) error {
	if err := o.Pull(ctx); err != nil {
		return err
	}
	if !o.Status().Pending {
		return nil
	}
	return o.Push(ctx)
}

func (o *Orchestrator) onTick() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.periodic = o.clock.AfterFunc(o.opts.Interval, o.onTick)
	o.mu.Unlock()

	_ = o.Pull(o.log.WithContext(context.Background()))
}

func (o *Orchestrator) onDebounce() {
	o.mu.Lock()
	o.debounce = nil
	o.mu.Unlock()

	_ = o.Push(o.log.WithContext(context.Background()))
}

// begin moves a side from idle to next. It reports false when that side is
// busy or the orchestrator is stopped.
func (o *Orchestrator) begin(side *State, next State) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped || *side != StateIdle {
		return false
	}
	*side = next
	return true
}

func (o *Orchestrator) set(side *State, next State) {
	o.mu.Lock()
	*side = next
	o.mu.Unlock()
}

func (o *Orchestrator) runLogger(op string) logger.Logger {
	return o.log.ID(uuid.NewString()).Root(logger.Data{"op": op})
}

// fail records err for Status. Local data is left as it is.
func (o *Orchestrator) fail(log logger.Logger, msg string, err error) error {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
	log.Err(err).Warn(msg)
	return err
}

func (o *Orchestrator) succeeded(revision int64, pending bool) {
	now := o.Now()
	o.mu.Lock()
	o.revision = revision
	o.pending = pending
	o.lastSyncAt = &now
	o.lastErr = nil
	o.mu.Unlock()
}
