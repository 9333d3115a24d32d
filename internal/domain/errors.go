package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Adapter errors - 遠端適配器層錯誤
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrBadRequest indicates the remote rejected the request as malformed
	ErrBadRequest = errors.New("bad request")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrQuotaExceeded indicates storage quota has been exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrNetworkError indicates a network-related failure
	ErrNetworkError = errors.New("network error")

	// ErrUnsupported indicates the backend cannot perform the operation
	ErrUnsupported = errors.New("operation not supported")
)

// Session errors - 瀏覽工作階段錯誤
var (
	// ErrInvalidDownloadPolicy indicates an unrecognized thumbnail download policy
	ErrInvalidDownloadPolicy = errors.New("invalid download policy")

	// ErrSessionClosed indicates the session has been disposed
	ErrSessionClosed = errors.New("session closed")

	// ErrSelecting indicates navigation was attempted in multi-selection mode
	ErrSelecting = errors.New("selection mode active")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrRemoteTypeNotFound indicates the configured remote type is unknown
	ErrRemoteTypeNotFound = errors.New("remote type not found")
)

// Severity classifies a remote failure for the caller
type Severity int

const (
	// SeverityReportable failures are forwarded to the error reporter
	SeverityReportable Severity = iota

	// SeverityExpected failures are suppressed without reporting
	SeverityExpected
)

// String returns the string representation of the severity
func (s Severity) String() string {
	if s == SeverityExpected {
		return "expected"
	}
	return "reportable"
}

// RemoteError is a failed remote call carrying the protocol status code
type RemoteError struct {
	// Op is the remote operation (list, mkdir, delete, move, thumbnail, read, write)
	Op string

	// Path is the remote path the operation targeted
	Path string

	// StatusCode is the HTTP-like status reported by the remote (0 if none)
	StatusCode int

	// Err is the underlying cause, usually one of the sentinel errors above
	Err error
}

// Error implements error
func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Severity reports whether the failure is an expected outcome of the
// request (bad request or a name collision) or must be reported
func (e *RemoteError) Severity() Severity {
	if e.StatusCode == http.StatusBadRequest ||
		errors.Is(e.Err, ErrBadRequest) ||
		errors.Is(e.Err, ErrAlreadyExists) {
		return SeverityExpected
	}
	return SeverityReportable
}

// NewRemoteError builds a RemoteError, inferring the sentinel cause from
// well-known status codes when err is nil
func NewRemoteError(op, path string, status int, err error) *RemoteError {
	if err == nil {
		err = ErrorForStatus(status)
	}
	return &RemoteError{Op: op, Path: path, StatusCode: status, Err: err}
}

// ErrorForStatus maps an HTTP-like status code to a domain sentinel error
func ErrorForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrPermissionDenied
	case http.StatusNotFound, http.StatusConflict:
		return ErrNotFound
	case http.StatusMethodNotAllowed, http.StatusPreconditionFailed:
		return ErrAlreadyExists
	case http.StatusInsufficientStorage:
		return ErrQuotaExceeded
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrNetworkError
	}
	return fmt.Errorf("unexpected status %d", status)
}

// AsRemoteError returns err as a *RemoteError, wrapping non-remote errors
// under the given operation and path
func AsRemoteError(op, path string, err error) *RemoteError {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}
	return &RemoteError{Op: op, Path: path, Err: err}
}
