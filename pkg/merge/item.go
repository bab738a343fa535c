package merge

import (
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

// Items merges two versions of the same item. The side with the later
// UpdatedAt supplies the scalar fields, with three independent groups:
//
//   - exposure events are unioned and capped to the oldest entries
//   - the AI description group follows the later DescriptionGeneratedAt
//   - each custom image field keeps the newer value unless it is empty
func Items(local, remote *models.ItemState) *models.ItemState {
	newer, older := local, remote
	if remote.UpdatedAt.After(local.UpdatedAt) {
		newer, older = remote, local
	}

	out := newer.Clone()
	out.UpdatedAt = maxTime(local.UpdatedAt, remote.UpdatedAt)
	out.ExposureEvents = models.MergeExposureEvents(local.ExposureEvents, remote.ExposureEvents)

	ai := descriptionSource(newer, older)
	out.Description = ai.Description
	out.Reactions = cloneStrings(ai.Reactions)
	out.DescriptionModel = ai.DescriptionModel
	out.DescriptionGeneratedAt = cloneTime(ai.DescriptionGeneratedAt)

	out.ImageURL = firstNonEmpty(newer.ImageURL, older.ImageURL)
	out.ImageAttribution = firstNonEmpty(newer.ImageAttribution, older.ImageAttribution)
	out.ImageAttributionURL = firstNonEmpty(newer.ImageAttributionURL, older.ImageAttributionURL)
	out.ImageSource = firstNonEmpty(newer.ImageSource, older.ImageSource)
	if newer.ImageGeneratedAt != nil {
		out.ImageGeneratedAt = cloneTime(newer.ImageGeneratedAt)
	} else {
		out.ImageGeneratedAt = cloneTime(older.ImageGeneratedAt)
	}

	return out
}

// descriptionSource picks the side whose description was generated last. A
// missing timestamp is older than any present one.
func descriptionSource(newer, older *models.ItemState) *models.ItemState {
	switch {
	case older.DescriptionGeneratedAt == nil:
		return newer
	case newer.DescriptionGeneratedAt == nil:
		return older
	case older.DescriptionGeneratedAt.After(*newer.DescriptionGeneratedAt):
		return older
	default:
		return newer
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
