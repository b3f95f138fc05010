package location

import (
	"context"
	"errors"
)

// ErrNoFix is returned when a source produced no usable position.
var ErrNoFix = errors.New("no valid GPS data found")

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (Location, error)
	Close() error
}
