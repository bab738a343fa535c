package errcodes

import (
	"fmt"
	"net/http"
)

type Error struct {
	HTTPCode int
	Message  string
	Code     string
}

func (err *Error) Error() string {
	return err.Message
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

// BadRequest returns a 400 error with a machine-checkable code.
func BadRequest(code, msg string) error {
	return &Error{
		http.StatusBadRequest,
		msg,
		code,
	}
}

func InvalidShareToken() error {
	return BadRequest("invalid_share_token", "Share token is malformed.")
}

func InvalidProfileID() error {
	return BadRequest("invalid_profile_id", "Profile ID is malformed.")
}

func InvalidBaseRevision() error {
	return BadRequest("invalid_base_revision", "Base revision must be a non-negative integer.")
}

func SnapshotTooLarge(limit int) error {
	return BadRequest("snapshot_too_large", fmt.Sprintf("Snapshot exceeds %d bytes.", limit))
}

func MalformedSnapshot() error {
	return BadRequest("malformed_snapshot", "Snapshot could not be decoded.")
}

// Unauthorized returns a 401 error for a missing or wrong credential.
func Unauthorized() error {
	return &Error{
		http.StatusUnauthorized,
		"Unauthorized",
		"unauthorized",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		http.StatusNotFound,
		resource + " not found.",
		"not_found",
	}
}

func UnsupportedMediaType() error {
	return &Error{
		http.StatusUnsupportedMediaType,
		"Unsupported Media Type",
		"unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return BadRequest("unknown_parameter", fmt.Sprintf("Unknown Parameter %q", param))
}

// ValidationTypeError shares the validation_error code so clients only need
// to handle one code for bad field values.
func ValidationTypeError(msg string) error {
	return BadRequest("validation_error", msg)
}

func ValidationError(msg string) error {
	return BadRequest("validation_error", msg)
}

func MalformedPayload() error {
	return BadRequest("malformed_payload", "Malformed Payload")
}

func EmptyRequestBody() error {
	return BadRequest("empty_request_body", "Request body can't be empty.")
}
