package syncapi

import (
	"bytes"
	"context"
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/errcodes"
	"github.com/jdmarquezdev/tribitr-web/pkg/imagefields"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/snapshots"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// ErrNotFound means nothing has been pushed for the share token yet. It's an
// expected outcome on a device's first sync.
var ErrNotFound = errors.New("no snapshot for share token")

type Service struct {
	store            *snapshots.Store
	maxSnapshotBytes int
	now              func() time.Time
}

func NewService(store *snapshots.Store, maxSnapshotBytes int) *Service {
	if maxSnapshotBytes <= 0 {
		maxSnapshotBytes = models.MaxSnapshotBytes
	}
	return &Service{
		store:            store,
		maxSnapshotBytes: maxSnapshotBytes,
		now:              time.Now,
	}
}

// Pull returns the stored snapshot for the pair, or the token's most recent
// snapshot when profileID is empty.
func (svc *Service) Pull(ctx context.Context, shareToken, profileID string) (*models.Snapshot, error) {
	log := logger.FromContext(ctx)

	if err := validateIdentity(shareToken, profileID, false); err != nil {
		return nil, err
	}

	rec, err := svc.store.Get(ctx, shareToken, profileID)
	if err != nil {
		if errors.Is(err, snapshots.ErrNotFound) {
			log.Info("pull miss", logger.Data{"profile_id": profileID, "share_token": redact(shareToken)})
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}

	return rec.Snapshot, nil
}

type PushInput struct {
	ShareToken   string
	ProfileID    string
	BaseRevision int64
	// Snapshot is the serialized snapshot as sent by the client.
	Snapshot []byte
}

type PushResult struct {
	Snapshot *models.Snapshot
	Revision int64
	Created  bool
	// Conflict is set when BaseRevision was stale. Snapshot and Revision are
	// then the server's current state, which was left untouched.
	Conflict bool
}

// Push stores a new snapshot when in.BaseRevision matches the stored
// revision. The first push for a pair always succeeds at revision 1.
//
// The server stamps savedAt on every accepted write. The snapshot's own
// updatedAt is left as the client sent it, so settings and order keep
// comparing client edit times during merge.
func (svc *Service) Push(ctx context.Context, in PushInput) (*PushResult, error) {
	log := logger.FromContext(ctx)

	if err := validateIdentity(in.ShareToken, in.ProfileID, true); err != nil {
		return nil, err
	}
	if in.BaseRevision < 0 {
		return nil, errcodes.InvalidBaseRevision()
	}
	if len(in.Snapshot) > svc.maxSnapshotBytes {
		return nil, errcodes.SnapshotTooLarge(svc.maxSnapshotBytes)
	}

	// Only an object may replace a stored snapshot. A bare null would decode
	// into an empty document and wipe the profile.
	raw := bytes.TrimSpace(in.Snapshot)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, errcodes.MalformedSnapshot()
	}
	incoming, err := models.DecodeSnapshot(raw)
	if err != nil {
		return nil, errcodes.MalformedSnapshot()
	}
	incoming.Normalize()
	incoming.ProfileID = in.ProfileID
	incoming.ShareToken = in.ShareToken

	res, err := svc.store.CompareAndSwap(ctx, in.ProfileID, in.ShareToken, in.BaseRevision, func(revision int64) (*models.Snapshot, error) {
		out := incoming.Clone()
		out.Revision = revision
		now := svc.now().UTC()
		out.SavedAt = &now

		report := imagefields.Sanitize(out)
		if !report.Empty() {
			log.Debug("sanitized image fields", logger.Data{
				"profile_id": in.ProfileID,
				"cleared":    report.Cleared,
				"backfilled": report.Backfilled,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &PushResult{
		Snapshot: res.Record.Snapshot,
		Revision: res.Record.Revision,
		Created:  res.Created,
		Conflict: res.Conflict,
	}

	data := logger.Data{
		"profile_id":    in.ProfileID,
		"base_revision": in.BaseRevision,
		"revision":      result.Revision,
	}
	switch {
	case result.Conflict:
		log.Info("push conflict", data)
	case result.Created:
		log.Info("snapshot created", data)
	default:
		log.Debug("push accepted", data)
	}

	return result, nil
}

// Delete removes a profile's snapshot for good.
func (svc *Service) Delete(ctx context.Context, shareToken, profileID string) error {
	if err := validateIdentity(shareToken, profileID, true); err != nil {
		return err
	}
	err := svc.store.Delete(ctx, shareToken, profileID)
	if errors.Is(err, snapshots.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return errors.WithStack(err)
	}
	logger.FromContext(ctx).Info("snapshot deleted", logger.Data{"profile_id": profileID})
	return nil
}

func validateIdentity(shareToken, profileID string, profileRequired bool) error {
	if !models.IsValidShareToken(shareToken) {
		return errcodes.InvalidShareToken()
	}
	if profileID == "" && !profileRequired {
		return nil
	}
	if !models.IsValidProfileID(profileID) {
		return errcodes.InvalidProfileID()
	}
	return nil
}

func redact(token string) string {
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "***"
}
