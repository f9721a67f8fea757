package sheets

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable marks any transport, auth or quota failure talking to the spreadsheet provider.
var ErrUpstreamUnavailable = errors.New("spreadsheet provider unavailable")

// UpstreamError wraps a provider error with the operation that failed.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("sheets %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUpstreamUnavailable) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
