package syncapi

import (
	"encoding/json"

	"github.com/jdmarquezdev/tribitr-web/pkg/models"
)

type PullPayload struct {
	ShareToken string `json:"shareToken" mod:"trim" validate:"required,share_token"`
	ProfileID  string `json:"profileId,omitempty" mod:"trim" validate:"profile_id"`
}

type PushPayload struct {
	ShareToken   string          `json:"shareToken" mod:"trim" validate:"required,share_token"`
	ProfileID    string          `json:"profileId" mod:"trim" validate:"required,profile_id"`
	BaseRevision json.RawMessage `json:"baseRevision" tstype:"number"`
	Snapshot     json.RawMessage `json:"snapshot" tstype:"Snapshot"`
}

type DeletePayload struct {
	ShareToken string `json:"shareToken" mod:"trim" validate:"required,share_token"`
	ProfileID  string `json:"profileId" mod:"trim" validate:"required,profile_id"`
}

type SnapshotResponse struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Revision int64            `json:"revision"`
	Conflict bool             `json:"conflict,omitempty"`
}
