package models

import (
	"sort"
	"time"
)

// MaxExposureEvents caps how many exposure timestamps an item retains.
const MaxExposureEvents = 3

// ItemState is the per-food tracking state.
type ItemState struct {
	ID             string      `json:"id"`
	Hidden         bool        `json:"hidden"`
	Notes          string      `json:"notes"`
	ExposureEvents []time.Time `json:"exposureEvents"`

	ImageURL            string     `json:"imageUrl,omitempty"`
	ImageAttribution    string     `json:"imageAttribution,omitempty"`
	ImageAttributionURL string     `json:"imageAttributionUrl,omitempty"`
	ImageSource         string     `json:"imageSource,omitempty"`
	ImageGeneratedAt    *time.Time `json:"imageGeneratedAt,omitempty"`

	Description            string     `json:"description,omitempty"`
	Reactions              []string   `json:"reactions,omitempty"`
	DescriptionModel       string     `json:"descriptionModel,omitempty"`
	DescriptionGeneratedAt *time.Time `json:"descriptionGeneratedAt,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the item.
func (i *ItemState) Clone() *ItemState {
	if i == nil {
		return nil
	}
	out := *i
	if i.ExposureEvents != nil {
		out.ExposureEvents = make([]time.Time, len(i.ExposureEvents))
		copy(out.ExposureEvents, i.ExposureEvents)
	}
	out.Reactions = cloneStrings(i.Reactions)
	out.ImageGeneratedAt = cloneTime(i.ImageGeneratedAt)
	out.DescriptionGeneratedAt = cloneTime(i.DescriptionGeneratedAt)
	return &out
}

// HasCustomImage reports whether any field of the custom image group is set.
func (i *ItemState) HasCustomImage() bool {
	return i.ImageURL != "" ||
		i.ImageAttribution != "" ||
		i.ImageAttributionURL != "" ||
		i.ImageSource != "" ||
		i.ImageGeneratedAt != nil
}

// ClearCustomImage reverts the item to default imagery.
func (i *ItemState) ClearCustomImage() {
	i.ImageURL = ""
	i.ImageAttribution = ""
	i.ImageAttributionURL = ""
	i.ImageSource = ""
	i.ImageGeneratedAt = nil
}

// RecordExposure appends an exposure at t and bumps the item's stamp. It
// returns false when the item already holds MaxExposureEvents exposures.
func (i *ItemState) RecordExposure(t time.Time) bool {
	if len(i.ExposureEvents) >= MaxExposureEvents {
		return false
	}
	i.ExposureEvents = MergeExposureEvents(i.ExposureEvents, []time.Time{t})
	i.UpdatedAt = t
	return true
}

// MergeExposureEvents returns the union of both lists, deduplicated by
// instant, sorted ascending and truncated to the earliest MaxExposureEvents.
// The inputs are not modified.
func MergeExposureEvents(a, b []time.Time) []time.Time {
	if len(a)+len(b) == 0 {
		if a == nil && b == nil {
			return nil
		}
		return []time.Time{}
	}

	all := make([]time.Time, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.SliceStable(all, func(x, y int) bool {
		return all[x].Before(all[y])
	})

	out := make([]time.Time, 0, MaxExposureEvents)
	for _, t := range all {
		if len(out) > 0 && out[len(out)-1].Equal(t) {
			continue
		}
		out = append(out, t)
		if len(out) == MaxExposureEvents {
			break
		}
	}
	return out
}
