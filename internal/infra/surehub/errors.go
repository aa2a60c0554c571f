package surehub

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindNetwork    ErrorKind = "network"
	KindAuth       ErrorKind = "auth"
	KindValidation ErrorKind = "validation"
	KindMalformed  ErrorKind = "malformed"
)

// APIError covers every way a vendor call can fail: transport problems,
// rejected credentials, rejected parameters and responses we cannot parse.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("surehub: %s (HTTP %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("surehub: %s", e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// AuthRejected reports whether the call failed because the bearer token
// was not accepted. The dispatcher keys its single re-auth retry off this.
func (e *APIError) AuthRejected() bool { return e.Kind == KindAuth }

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindNetwork
	}
}

// Kind extracts the error kind for presentation; non-API errors report
// as network failures.
func Kind(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindNetwork
}
