package orchestrator

import (
	"context"

	"github.com/jdmarquezdev/tribitr-web/pkg/merge"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Pull fetches the server copy and merges it into the local one. It's a
// no-op while another pull is in flight.
func (o *Orchestrator) Pull(ctx context.Context) error {
	if !o.begin(&o.pullState, StatePulling) {
		return nil
	}
	defer o.set(&o.pullState, StateIdle)

	log := o.runLogger("pull")

	callCtx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	remote, err := o.remote.Pull(callCtx, o.shareToken, o.profileID)
	cancel()
	if err != nil {
		return o.fail(log, "pull failed", errors.WithStack(err))
	}

	if remote == nil {
		log.Info("no server copy yet, creating it")
		if err := o.seed(ctx); err != nil {
			return o.fail(log, "seed failed", err)
		}
		return o.Push(ctx)
	}

	o.set(&o.pullState, StateMerging)
	needsPush, err := o.absorb(ctx, remote)
	if err != nil {
		return o.fail(log, "merge failed", err)
	}

	log.Debug("pulled", logger.Data{"revision": remote.Revision, "needs_push": needsPush})
	if needsPush {
		o.SchedulePush()
	}
	return nil
}

// seed makes sure a local copy exists and resets it to revision 0 so the next
// push creates the server row.
func (o *Orchestrator) seed(ctx context.Context) error {
	o.localMu.Lock()
	defer o.localMu.Unlock()

	snap, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		return errors.WithStack(err)
	}
	if snap == nil {
		snap = models.NewSnapshot(o.profileID, o.shareToken, o.Now())
	}
	snap.Revision = 0
	if err := o.local.Put(ctx, snap); err != nil {
		return errors.WithStack(err)
	}

	o.mu.Lock()
	o.revision = 0
	o.pending = true
	o.mu.Unlock()
	return nil
}

// absorb merges remote into the local copy and stores the result. It reports
// whether the result holds anything the server doesn't have.
func (o *Orchestrator) absorb(ctx context.Context, remote *models.Snapshot) (bool, error) {
	o.localMu.Lock()
	defer o.localMu.Unlock()

	local, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		return false, errors.WithStack(err)
	}

	var merged *models.Snapshot
	if local == nil {
		merged = remote.Clone()
	} else {
		merged = merge.Snapshots(local, remote)
	}
	if err := o.local.Put(ctx, merged); err != nil {
		return false, errors.WithStack(err)
	}

	needsPush := !merge.Equal(merged, remote)
	o.succeeded(remote.Revision, needsPush)
	return needsPush, nil
}
