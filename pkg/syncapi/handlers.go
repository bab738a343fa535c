package syncapi

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/jdmarquezdev/tribitr-web/pkg/errcodes"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// envelopeSlack is the room left for the push envelope around the snapshot
// when capping the request body.
const envelopeSlack = 16 << 10

type handler struct {
	syncService  *Service
	maxBodyBytes int64
}

func (h *handler) pull(c echo.Context) error {
	ctx := c.Request().Context()

	params := PullPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	snap, err := h.syncService.Pull(ctx, params.ShareToken, params.ProfileID)
	if errors.Is(err, ErrNotFound) {
		return errors.WithStack(c.JSON(http.StatusNotFound, echo.Map{}))
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, SnapshotResponse{
		Snapshot: snap,
		Revision: snap.Revision,
	}))
}

func (h *handler) push(c echo.Context) error {
	ctx := c.Request().Context()

	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxBodyBytes)

	params := PushPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	base, err := parseBaseRevision(params.BaseRevision)
	if err != nil {
		return err
	}

	result, err := h.syncService.Push(ctx, PushInput{
		ShareToken:   params.ShareToken,
		ProfileID:    params.ProfileID,
		BaseRevision: base,
		Snapshot:     params.Snapshot,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusOK
	if result.Conflict {
		status = http.StatusConflict
	}
	return errors.WithStack(c.JSON(status, SnapshotResponse{
		Snapshot: result.Snapshot,
		Revision: result.Revision,
		Conflict: result.Conflict,
	}))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	params := DeletePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	err := h.syncService.Delete(ctx, params.ShareToken, params.ProfileID)
	if errors.Is(err, ErrNotFound) {
		return errors.WithStack(c.JSON(http.StatusNotFound, echo.Map{}))
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// parseBaseRevision accepts a missing or null value as 0 and otherwise
// requires a non-negative integer literal.
func parseBaseRevision(raw []byte) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, errcodes.InvalidBaseRevision()
	}
	return n, nil
}
