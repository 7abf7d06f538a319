package requirements

import (
	"context"
	"errors"
)

// Source errors.
var (
	// ErrUnavailable is returned when the backing source cannot be reached
	// and no last-known-good snapshot exists.
	ErrUnavailable = errors.New("requirements source unavailable")
)

// Source loads the raw requirement mapping for a layer from the backing
// store. Implementations may be slow; the Provider caches their results.
type Source interface {
	// Load returns the full requirement set for the given layer.
	Load(ctx context.Context, layer Layer) (Set, error)
}
