package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// MaxSnapshotBytes is the hard ceiling on a serialized snapshot accepted by
// the server.
const MaxSnapshotBytes = 1_000_000

// Snapshot is the full synchronized document for one profile, addressed by
// the (ProfileID, ShareToken) pair.
type Snapshot struct {
	ProfileID      string     `json:"profileId"`
	ShareToken     string     `json:"shareToken"`
	Revision       int64      `json:"revision"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	OrderUpdatedAt *time.Time `json:"orderUpdatedAt,omitempty"`
	SavedAt        *time.Time `json:"savedAt,omitempty"`

	Settings Settings              `json:"settings"`
	Items    map[string]*ItemState `json:"items"`
	Order    []string              `json:"order"`

	CustomEntities    map[string]*CustomEntity   `json:"customEntities,omitempty"`
	CustomCategories  map[string]*CustomCategory `json:"customCategories,omitempty"`
	CategoryOrder     map[string][]string        `json:"categoryOrder,omitempty"`
	CategoryOverrides map[string]string          `json:"categoryOverrides,omitempty"`
}

// CustomEntity is a user-defined trackable food.
type CustomEntity struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji,omitempty"`
	CategoryID string    `json:"categoryId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CustomCategory is a user-defined grouping of items.
type CustomCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Emoji string `json:"emoji,omitempty"`
}

// NewSnapshot returns a fresh document seeded from defaults. The revision is
// left at 0 until the server accepts the first write.
func NewSnapshot(profileID, shareToken string, now time.Time) *Snapshot {
	return &Snapshot{
		ProfileID:  profileID,
		ShareToken: shareToken,
		UpdatedAt:  now,
		Settings:   DefaultSettings(),
		Items:      map[string]*ItemState{},
		Order:      []string{},
	}
}

// OrderStamp returns the timestamp used to decide which side's order wins.
func (s *Snapshot) OrderStamp() time.Time {
	if s.OrderUpdatedAt != nil {
		return *s.OrderUpdatedAt
	}
	return s.UpdatedAt
}

// Item returns the item with the given ID, creating it if necessary.
func (s *Snapshot) Item(id string) *ItemState {
	if s.Items == nil {
		s.Items = map[string]*ItemState{}
	}
	item, ok := s.Items[id]
	if !ok || item == nil {
		item = &ItemState{ID: id}
		s.Items[id] = item
	}
	return item
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.OrderUpdatedAt = cloneTime(s.OrderUpdatedAt)
	out.SavedAt = cloneTime(s.SavedAt)
	out.Order = cloneStrings(s.Order)

	if s.Items != nil {
		out.Items = make(map[string]*ItemState, len(s.Items))
		for id, item := range s.Items {
			out.Items[id] = item.Clone()
		}
	}
	if s.CustomEntities != nil {
		out.CustomEntities = make(map[string]*CustomEntity, len(s.CustomEntities))
		for id, e := range s.CustomEntities {
			if e == nil {
				out.CustomEntities[id] = nil
				continue
			}
			cp := *e
			out.CustomEntities[id] = &cp
		}
	}
	if s.CustomCategories != nil {
		out.CustomCategories = make(map[string]*CustomCategory, len(s.CustomCategories))
		for id, c := range s.CustomCategories {
			if c == nil {
				out.CustomCategories[id] = nil
				continue
			}
			cp := *c
			out.CustomCategories[id] = &cp
		}
	}
	if s.CategoryOrder != nil {
		out.CategoryOrder = make(map[string][]string, len(s.CategoryOrder))
		for id, order := range s.CategoryOrder {
			out.CategoryOrder[id] = cloneStrings(order)
		}
	}
	if s.CategoryOverrides != nil {
		out.CategoryOverrides = make(map[string]string, len(s.CategoryOverrides))
		for id, cat := range s.CategoryOverrides {
			out.CategoryOverrides[id] = cat
		}
	}
	return &out
}

// Encode serializes the snapshot for storage or transport.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// DecodeSnapshot parses a serialized snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, errors.WithStack(err)
	}
	return snap, nil
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
