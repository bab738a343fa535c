package orchestrator

import (
	"context"

	"github.com/jdmarquezdev/tribitr-web/pkg/merge"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Push sends the local copy based on the last seen revision. A conflict is
// merged and retried once. It's a no-op while another push is in flight.
func (o *Orchestrator) Push(ctx context.Context) error {
	o.mu.Lock()
	if o.stopped || o.pushState != StateIdle {
		o.mu.Unlock()
		return nil
	}
	o.pushState = StatePushing
	if o.debounce != nil {
		o.debounce.Stop()
		o.debounce = nil
	}
	o.mu.Unlock()
	defer o.set(&o.pushState, StateIdle)

	log := o.runLogger("push")

	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	local, gen, err := o.read(ctx)
	if err != nil {
		return o.fail(log, "push failed", err)
	}
	if local == nil {
		return nil
	}

	out, conflict, err := o.remote.Push(ctx, local.Revision, local)
	if err != nil {
		return o.fail(log, "push failed", errors.WithStack(err))
	}

	if conflict {
		log.Info("push conflict, merging and retrying", logger.Data{
			"base_revision":   local.Revision,
			"server_revision": out.Revision,
		})
		o.set(&o.pushState, StateConflictRetry)

		merged, mergedGen, err := o.rebase(ctx, out)
		if err != nil {
			return o.fail(log, "push failed", err)
		}
		gen = mergedGen

		out, conflict, err = o.remote.Push(ctx, merged.Revision, merged)
		if err != nil {
			return o.fail(log, "push retry failed", errors.WithStack(err))
		}
		if conflict {
			if _, _, err := o.rebase(ctx, out); err != nil {
				log.Err(err).Warn("rebase after second conflict failed")
			}
			return o.fail(log, "push retry conflicted", ErrConflictRetry)
		}
	}

	pending, err := o.adopt(ctx, out, gen)
	if err != nil {
		return o.fail(log, "push failed", err)
	}

	log.Debug("pushed", logger.Data{"revision": out.Revision, "pending": pending})
	if pending {
		o.SchedulePush()
	}
	return nil
}

// read loads the local copy together with the edit generation it reflects.
func (o *Orchestrator) read(ctx context.Context) (*models.Snapshot, uint64, error) {
	o.localMu.Lock()
	defer o.localMu.Unlock()

	snap, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	o.mu.Lock()
	gen := o.generation
	o.mu.Unlock()
	return snap, gen, nil
}

// rebase merges the latest local copy onto server and stores it with the
// server's revision.
func (o *Orchestrator) rebase(ctx context.Context, server *models.Snapshot) (*models.Snapshot, uint64, error) {
	o.localMu.Lock()
	defer o.localMu.Unlock()

	local, err := o.local.Get(ctx, o.profileID)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	var merged *models.Snapshot
	if local == nil {
		merged = server.Clone()
	} else {
		merged = merge.Snapshots(local, server)
	}
	if err := o.local.Put(ctx, merged); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	o.mu.Lock()
	o.revision = server.Revision
	gen := o.generation
	o.mu.Unlock()
	return merged, gen, nil
}

// adopt stores the accepted snapshot. Edits made while the push was in
// flight are merged on top and reported as still pending.
func (o *Orchestrator) adopt(ctx context.Context, accepted *models.Snapshot, gen uint64) (bool, error) {
	o.localMu.Lock()
	defer o.localMu.Unlock()

	o.mu.Lock()
	edited := o.generation != gen
	o.mu.Unlock()

	next := accepted
	if edited {
		local, err := o.local.Get(ctx, o.profileID)
		if err != nil {
			return false, errors.WithStack(err)
		}
		if local != nil {
			next = merge.Snapshots(local, accepted)
		}
	}
	if err := o.local.Put(ctx, next); err != nil {
		return false, errors.WithStack(err)
	}

	o.succeeded(accepted.Revision, edited)
	return edited, nil
}
