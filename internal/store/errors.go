package store

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/kennel/internal/apiclient"
)

var (
	// ErrValidation marks failures detected client-side before any network call.
	ErrValidation = errors.New("validation error")

	// ErrNetwork marks requests that could not be sent or completed.
	ErrNetwork = errors.New("network error")

	// ErrAPI marks requests the server answered with a failure.
	ErrAPI = errors.New("api error")
)

// Kind classifies an OpError.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
)

const (
	msgNetwork   = "Failed to connect to the server. Please check your connection and try again."
	msgMalformed = "The server returned an unexpected response."
)

// OpError is the error state a Store exposes after a failed operation.
// Error returns a message suitable for showing to the user.
type OpError struct {
	Kind     Kind
	Op       string // fetch, fetch_one, create, update, delete
	Resource string
	Status   int // HTTP status for KindAPI, 0 otherwise
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return e.Message
}

// Detail returns the message with operation context, for logs.
func (e *OpError) Detail() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d)", e.Op, e.Resource, e.Message, e.Status)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Resource, e.Message)
}

// Unwrap exposes the kind sentinel and the underlying cause to errors.Is/As.
func (e *OpError) Unwrap() []error {
	out := []error{e.Kind.sentinel()}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNetwork:
		return ErrNetwork
	default:
		return ErrAPI
	}
}

// KindOf returns the kind of err, or "" if err is not an OpError.
func KindOf(err error) Kind {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// Classify maps an apiclient outcome onto the error taxonomy. It returns nil
// when resp is a successful response.
func Classify(op, resource string, resp *apiclient.Response, err error) *OpError {
	switch {
	case errors.Is(err, apiclient.ErrMalformedResponse):
		return &OpError{Kind: KindAPI, Op: op, Resource: resource, Message: msgMalformed, Err: err}
	case err != nil:
		return &OpError{Kind: KindNetwork, Op: op, Resource: resource, Message: msgNetwork, Err: err}
	case resp == nil:
		return &OpError{Kind: KindAPI, Op: op, Resource: resource, Message: msgMalformed, Err: apiclient.ErrMalformedResponse}
	case !resp.OK:
		return &OpError{Kind: KindAPI, Op: op, Resource: resource, Status: resp.Status, Message: resp.Error}
	}
	return nil
}
