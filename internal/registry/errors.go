package registry

import (
	"errors"
	"fmt"
)

// Kind classifies a registry error for retry and fallback decisions.
type Kind string

const (
	// KindConnection indicates a transient connectivity failure: timeout,
	// DNS/connect failure, or a 5xx-class response. Retried up to the
	// configured ceiling, never cached.
	KindConnection Kind = "connection_error"

	// KindNotFound indicates the key legitimately does not exist in the
	// store. Never retried.
	KindNotFound Kind = "not_found"

	// KindData indicates a response was received but failed structural or
	// schema validation. Never retried and never cached; points at an
	// upstream publishing defect rather than network instability.
	KindData Kind = "data_error"
)

// Error is the typed error surfaced by the registry client. When every
// fallback tier has been exhausted, the terminal error from the live fetch
// is propagated unchanged, so its Kind tells the caller what went wrong
// upstream.
type Error struct {
	Kind     Kind
	Key      string
	Message  string
	Attempts int // network attempts made, 0 when not applicable
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("registry %s: %s: %s", e.Kind, e.Key, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError wraps a transient connectivity failure.
func NewConnectionError(key, message string, attempts int, err error) *Error {
	return &Error{Kind: KindConnection, Key: key, Message: message, Attempts: attempts, Err: err}
}

// NewNotFoundError marks a key as absent from the store.
func NewNotFoundError(key string) *Error {
	return &Error{Kind: KindNotFound, Key: key, Message: "document does not exist"}
}

// NewDataError marks a document that failed validation.
func NewDataError(key, message string, err error) *Error {
	return &Error{Kind: KindData, Key: key, Message: message, Err: err}
}

func kindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// IsNotFound reports whether err is a registry not-found error.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsConnection reports whether err is a transient registry connection error.
func IsConnection(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindConnection
}

// IsData reports whether err is a registry data validation error.
func IsData(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindData
}
