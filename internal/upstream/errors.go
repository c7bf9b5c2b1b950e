package upstream

import (
	"errors"
	"fmt"
)

// ErrUnavailable matches every TransportError via errors.Is.
var ErrUnavailable = errors.New("upstream unavailable")

var errMissingData = errors.New("response has no data")

// TransportError reports that a service could not be used for this request,
// whether the call failed on the wire, returned an error status, or sent a
// body that could not be decoded. It never carries partial data.
type TransportError struct {
	Service string
	Status  int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s service: status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrUnavailable }

// Result holds the settled outcome of one fetch.
type Result[T any] struct {
	Value T
	Err   error
}

func Capture[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

func (r Result[T]) OK() bool { return r.Err == nil }
