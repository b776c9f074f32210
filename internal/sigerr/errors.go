// Package sigerr defines the error kinds shared by the signing workflow and
// its collaborators. Callers match kinds with errors.Is; the underlying cause
// stays in the chain.
package sigerr

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingKey      = errors.New("missing key")
	ErrMissingSource   = errors.New("missing source")
	ErrMissingSink     = errors.New("missing sink")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrProvider        = errors.New("provider error")
	ErrIOFailure       = errors.New("i/o failure")
)

// Kind returns the sentinel err belongs to, or nil if it carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrInvalidArgument,
		ErrMissingKey,
		ErrMissingSource,
		ErrMissingSink,
		ErrTypeMismatch,
		ErrProvider,
		ErrIOFailure,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
