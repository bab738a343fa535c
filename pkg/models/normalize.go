package models

import "strings"

// Normalize repairs a snapshot in place by substituting defaults for missing
// or malformed fields. It never fails.
//
//   - zero-valued settings are replaced with DefaultSettings, an unknown theme
//     falls back to ThemeSystem and an empty language to DefaultLanguage
//   - nil items are dropped and every item's ID is set from its map key
//   - exposure lists are deduplicated, sorted and capped
//   - notes and image attribution are trimmed
//   - empty and duplicate IDs are removed from the order
func (s *Snapshot) Normalize() {
	if s.Settings == (Settings{}) {
		s.Settings = DefaultSettings()
	}
	if !IsValidTheme(s.Settings.Theme) {
		s.Settings.Theme = ThemeSystem
	}
	if strings.TrimSpace(s.Settings.Language) == "" {
		s.Settings.Language = DefaultLanguage
	}

	if s.Items == nil {
		s.Items = map[string]*ItemState{}
	}
	for id, item := range s.Items {
		if item == nil || id == "" {
			delete(s.Items, id)
			continue
		}
		item.ID = id
		if len(item.ExposureEvents) > 0 {
			item.ExposureEvents = MergeExposureEvents(item.ExposureEvents, nil)
		}
		item.Notes = strings.TrimSpace(item.Notes)
		item.ImageAttribution = strings.TrimSpace(item.ImageAttribution)
		item.ImageURL = strings.TrimSpace(item.ImageURL)
	}

	if s.Order == nil {
		s.Order = []string{}
	}
	s.Order = dedupeIDs(s.Order)
	for cat, order := range s.CategoryOrder {
		s.CategoryOrder[cat] = dedupeIDs(order)
	}

	for id, e := range s.CustomEntities {
		if e == nil {
			delete(s.CustomEntities, id)
			continue
		}
		e.ID = id
	}
	for id, c := range s.CustomCategories {
		if c == nil {
			delete(s.CustomCategories, id)
			continue
		}
		c.ID = id
	}
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
