package merge

import (
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// Snapshots reconciles two copies of the same profile. It never mutates its
// inputs and the result shares no maps or slices with them. Ties on every
// timestamp comparison go to local.
func Snapshots(local, remote *models.Snapshot) *models.Snapshot {
	if local == nil {
		local = &models.Snapshot{}
	}
	if remote == nil {
		remote = &models.Snapshot{}
	}

	out := &models.Snapshot{
		ProfileID:  remote.ProfileID,
		ShareToken: remote.ShareToken,
		Revision:   remote.Revision,
		SavedAt:    cloneTime(remote.SavedAt),
		UpdatedAt:  maxTime(local.UpdatedAt, remote.UpdatedAt),
	}

	if local.OrderUpdatedAt != nil || remote.OrderUpdatedAt != nil {
		stamp := maxTime(local.OrderStamp(), remote.OrderStamp())
		out.OrderUpdatedAt = &stamp
	}

	if !remote.UpdatedAt.After(local.UpdatedAt) {
		out.Settings = local.Settings
	} else {
		out.Settings = remote.Settings
	}

	if !remote.OrderStamp().After(local.OrderStamp()) {
		out.Order = cloneStrings(local.Order)
	} else {
		out.Order = cloneStrings(remote.Order)
	}

	out.Items = mergeItemMaps(local.Items, remote.Items)

	out.CustomEntities = overlay(local.CustomEntities, remote.CustomEntities, func(e *models.CustomEntity) *models.CustomEntity {
		if e == nil {
			return nil
		}
		cp := *e
		return &cp
	})
	out.CustomCategories = overlay(local.CustomCategories, remote.CustomCategories, func(c *models.CustomCategory) *models.CustomCategory {
		if c == nil {
			return nil
		}
		cp := *c
		return &cp
	})
	out.CategoryOrder = overlay(local.CategoryOrder, remote.CategoryOrder, cloneStrings)
	out.CategoryOverrides = overlay(local.CategoryOverrides, remote.CategoryOverrides, func(s string) string { return s })

	return out
}

func mergeItemMaps(local, remote map[string]*models.ItemState) map[string]*models.ItemState {
	if local == nil && remote == nil {
		return nil
	}
	out := make(map[string]*models.ItemState, len(local)+len(remote))
	for id, l := range local {
		out[id] = l.Clone()
	}
	for id, r := range remote {
		l, ok := local[id]
		if !ok || l == nil {
			out[id] = r.Clone()
			continue
		}
		if r == nil {
			continue
		}
		out[id] = Items(l, r)
	}
	return out
}

// overlay unions two keyed collections, copying local first and letting
// remote overwrite per key. The result is nil only when both inputs are.
func overlay[V any](local, remote map[string]V, clone func(V) V) map[string]V {
	if local == nil && remote == nil {
		return nil
	}
	out := make(map[string]V, len(local)+len(remote))
	for k, v := range local {
		out[k] = clone(v)
	}
	for k, v := range remote {
		out[k] = clone(v)
	}
	return out
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
