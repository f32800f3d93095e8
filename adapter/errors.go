package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by any request-issuing operation invoked
	// without a connected identity. Nothing is sent in that case.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrConnectRejected is returned by Connect when the surface reports a
	// connect outcome without an identity, or disconnects mid-attempt.
	ErrConnectRejected = errors.New("wallet connection rejected")
	// ErrDisconnected settles every outstanding request when the session is
	// torn down.
	ErrDisconnected = errors.New("wallet disconnected")
	// ErrRequestTimeout settles a request whose response never arrived
	// within the configured window.
	ErrRequestTimeout = errors.New("wallet request timed out")
	// ErrSigningFailed wraps every failure surfaced by a signing operation.
	ErrSigningFailed = errors.New("signing failed")
)

// RemoteError carries the error value of a response envelope.
type RemoteError struct {
	Raw json.RawMessage
}

func (e *RemoteError) Error() string {
	var s string
	if json.Unmarshal(e.Raw, &s) == nil && s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return string(e.Raw)
}

func signingError(err error) error {
	return fmt.Errorf("%w: %w", ErrSigningFailed, err)
}
