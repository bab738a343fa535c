// Package syncclient talks to the /sync endpoints of a tribitr server.
package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jdmarquezdev/tribitr-web/pkg/models"
	"github.com/jdmarquezdev/tribitr-web/pkg/version"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const DefaultTimeout = 8 * time.Second

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

type Client struct {
	http *resty.Client
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "tribitr-syncclient/"+version.Version).
		SetTimeout(opts.Timeout).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	}

	return &Client{http: c}
}

// APIError is a non-2xx response other than the expected 404 and 409.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sync server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("sync server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether retrying the same request later could succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

type pullRequest struct {
	ShareToken string `json:"shareToken"`
	ProfileID  string `json:"profileId,omitempty"`
}

type pushRequest struct {
	ShareToken   string           `json:"shareToken"`
	ProfileID    string           `json:"profileId"`
	BaseRevision int64            `json:"baseRevision"`
	Snapshot     *models.Snapshot `json:"snapshot"`
}

type deleteRequest struct {
	ShareToken string `json:"shareToken"`
	ProfileID  string `json:"profileId"`
}

type snapshotResponse struct {
	Snapshot *models.Snapshot `json:"snapshot"`
	Revision int64            `json:"revision"`
	Conflict bool             `json:"conflict"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Pull fetches the server copy. It returns nil without an error when nothing
// has been pushed for the pair yet.
func (c *Client) Pull(ctx context.Context, shareToken, profileID string) (*models.Snapshot, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&pullRequest{ShareToken: shareToken, ProfileID: profileID}).
		Post("/sync/pull")
	if err != nil {
		return nil, errors.Wrap(err, "pull request")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return decodeSnapshot(resp)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, apiError(resp)
	}
}

// Push sends snap with the given base revision. On a conflict the returned
// snapshot is the server's current copy and conflict is true.
func (c *Client) Push(ctx context.Context, baseRevision int64, snap *models.Snapshot) (*models.Snapshot, bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&pushRequest{
			ShareToken:   snap.ShareToken,
			ProfileID:    snap.ProfileID,
			BaseRevision: baseRevision,
			Snapshot:     snap,
		}).
		Post("/sync/push")
	if err != nil {
		return nil, false, errors.Wrap(err, "push request")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		out, err := decodeSnapshot(resp)
		return out, false, err
	case http.StatusConflict:
		out, err := decodeSnapshot(resp)
		return out, true, err
	default:
		return nil, false, apiError(resp)
	}
}

// Delete removes the pair from the server. Deleting something that isn't
// there isn't an error.
func (c *Client) Delete(ctx context.Context, shareToken, profileID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&deleteRequest{ShareToken: shareToken, ProfileID: profileID}).
		Post("/sync/delete")
	if err != nil {
		return errors.Wrap(err, "delete request")
	}

	switch resp.StatusCode() {
	case http.StatusNoContent, http.StatusOK, http.StatusNotFound:
		return nil
	default:
		return apiError(resp)
	}
}

func decodeSnapshot(resp *resty.Response) (*models.Snapshot, error) {
	body := snapshotResponse{}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errors.Wrap(err, "decode sync response")
	}
	if body.Snapshot == nil {
		return nil, errors.New("sync response without a snapshot")
	}
	body.Snapshot.Revision = body.Revision
	body.Snapshot.Normalize()
	return body.Snapshot, nil
}

func apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	body := errorResponse{}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return errors.WithStack(apiErr)
}
