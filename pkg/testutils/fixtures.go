package testutils

import (
	"time"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

const (
	ShareToken = "share-token-123"
	ProfileID  = "profile-abc"
)

// Time returns a fixed UTC instant offset by the given number of minutes.
func Time(minutes int) time.Time {
	return time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

// Snapshot returns a small snapshot for the shared test identity.
func Snapshot(updated time.Time) *models.Snapshot {
	snap := models.NewSnapshot(ProfileID, ShareToken, updated)
	snap.Order = []string{"avocado", "banana"}
	snap.Items["avocado"] = &models.ItemState{ID: "avocado", UpdatedAt: updated}
	snap.Items["banana"] = &models.ItemState{ID: "banana", UpdatedAt: updated}
	return snap
}
