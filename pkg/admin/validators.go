package admin

import "github.com/jdmarquezdev/tribitr-web/pkg/snapshots"

type ListSnapshotsQuery struct {
	Limit      int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=500"`
	Offset     int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	ShareToken *string `query:"share_token" json:"share_token,omitempty" validate:"omitempty,share_token" tstype:"string"`
}

type ListSnapshotsResponse struct {
	Snapshots []*snapshots.Record `json:"snapshots"`
	Total     int                 `json:"total"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}
