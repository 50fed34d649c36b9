package vision

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyResponse = errors.New("empty model response")
	ErrNoFrameSource = errors.New("no frame source available")
	ErrNoFrame       = errors.New("no frame received")
	ErrStaleFrame    = errors.New("latest frame is stale")
	ErrEmptyFrame    = errors.New("no frame data provided")
	ErrFrameTooLarge = errors.New("frame dimensions exceed limit")
)

// ResourceError reports a frame source that cannot produce a frame.
type ResourceError struct {
	Op  string
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("frame source %s: %v", e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
}

type EndpointError struct {
	Status  int
	Message string
}

func (e *EndpointError) Error() string {
	return fmt.Sprintf("endpoint returned %d: %s", e.Status, e.Message)
}

type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsRequestError reports whether err came from the inference request itself.
func IsRequestError(err error) bool {
	var authErr *AuthError
	var endpointErr *EndpointError
	var netErr *NetworkError
	return errors.As(err, &authErr) || errors.As(err, &endpointErr) || errors.As(err, &netErr)
}
