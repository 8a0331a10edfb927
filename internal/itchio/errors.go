package itchio

import (
	"errors"
	"fmt"
)

// ErrInvalidAPIKey is returned by ValidateAPIKey when the key is rejected or
// the API cannot be reached. FormErrorKey is the error key shown to users.
var ErrInvalidAPIKey = errors.New("invalid_api_key")

const FormErrorKey = "invalid_api_key"

// TransportError covers DNS, connect and timeout failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "itch.io transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError covers non-2xx responses and bodies that cannot be decoded.
// StatusCode is zero for decode failures.
type ProtocolError struct {
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("itch.io API status: %d", e.StatusCode)
	}
	return "itch.io protocol: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error { return e.Err }
