// Package gate implements the runtime feature-gating engine: a generic
// interception guard, its version-checked decision cache, and the transport
// path matcher. Guards hold explicit handles to the flag registry and
// requirements provider; nothing here reaches for ambient globals.
package gate

import (
	"errors"
	"fmt"

	"github.com/billgate/billgate/internal/requirements"
)

// ErrConfiguration indicates a structurally malformed requirement (such as
// an unparsable path pattern). It is fatal at construction time: a guard
// refuses to start rather than run with ambiguous rules.
var ErrConfiguration = errors.New("invalid gate configuration")

// DeniedError is the designed, expected outcome of a gated call whose
// requirements are not satisfied. It is a distinct type so callers can
// branch on it with errors.As without broad failure handling.
type DeniedError struct {
	// Flag is the feature flag that produced the denial. Empty when the
	// denial is a fail-closed degradation rather than a flag decision.
	Flag string

	// Layer is the guard layer that cut the call short.
	Layer requirements.Layer

	// Selector is the guarded method name or path pattern.
	Selector string

	// Discriminator is the resolved discriminator value for the call.
	Discriminator string

	// Reason carries detail for fail-closed denials.
	Reason string
}

// Error implements the error interface.
func (e *DeniedError) Error() string {
	if e.Flag == "" {
		return fmt.Sprintf("denied at %s layer for %q: %s", e.Layer, e.Selector, e.Reason)
	}
	return fmt.Sprintf("denied by feature flag %q at %s layer for %q (discriminator=%s)",
		e.Flag, e.Layer, e.Selector, e.Discriminator)
}

// IsDenied reports whether err is a gate denial and returns it if so.
func IsDenied(err error) (*DeniedError, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
