package admin

import (
	"net/http"

	"github.com/jdmarquezdev/tribitr-web/pkg/errcodes"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/snapshots"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	snapshotStore *snapshots.Store
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListSnapshotsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	records, total, err := h.snapshotStore.List(ctx, snapshots.ListOptions{
		ShareToken: params.ShareToken,
		Limit:      &params.Limit,
		Offset:     &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ListSnapshotsResponse{
		Snapshots: records,
		Total:     total,
	}))
}

func (h *handler) deleteOne(c echo.Context) error {
	ctx := c.Request().Context()

	profileID := c.Param("profileId")
	if !models.IsValidProfileID(profileID) {
		return errcodes.InvalidProfileID()
	}

	n, err := h.snapshotStore.DeleteOne(ctx, profileID)
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errcodes.NotFound("Snapshot")
	}

	logger.FromContext(ctx).Info("admin deleted profile", logger.Data{"profile_id": profileID, "rows": n})

	return errors.WithStack(c.JSON(http.StatusOK, DeleteResponse{Deleted: n}))
}

func (h *handler) deleteAll(c echo.Context) error {
	ctx := c.Request().Context()

	n, err := h.snapshotStore.DeleteAll(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Warn("admin deleted all snapshots", logger.Data{"rows": n})

	return errors.WithStack(c.JSON(http.StatusOK, DeleteResponse{Deleted: n}))
}
