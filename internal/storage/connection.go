package storage

import (
	"context"
	"errors"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Handle is a lazily connected collection shared by every caller for one
// connection string. Concurrent first calls share a single in-flight connection
// attempt. A failed attempt is not remembered; the next call tries again.
type Handle struct {
	uri     string
	connect Connector
	logger  zerolog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	coll  Collection
}

// NewHandle creates an unconnected handle.
func NewHandle(uri string, connect Connector, logger zerolog.Logger) *Handle {
	return &Handle{
		uri:     uri,
		connect: connect,
		logger:  logger,
	}
}

// Collection returns the connected collection, connecting on first use.
// A caller whose ctx ends stops waiting; the shared attempt carries on.
func (h *Handle) Collection(ctx context.Context) (Collection, error) {
	if coll := h.current(); coll != nil {
		return coll, nil
	}

	ch := h.group.DoChan(h.uri, func() (any, error) {
		if coll := h.current(); coll != nil {
			return coll, nil
		}

		h.logger.Info().Str("uri", redact(h.uri)).Msg("Connecting to collection store")

		// The attempt is shared, so it must not die with the first caller's context.
		coll, err := h.connect(context.WithoutCancel(ctx), h.uri)
		if err != nil {
			h.logger.Error().Err(err).Str("uri", redact(h.uri)).Msg("Failed to connect to collection store")
			return nil, err
		}

		h.mu.Lock()
		h.coll = coll
		h.mu.Unlock()

		h.logger.Info().Str("uri", redact(h.uri)).Msg("Connected to collection store")
		return coll, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Collection), nil
	}
}

// Close disconnects the collection if it was ever connected.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	coll := h.coll
	h.coll = nil
	h.mu.Unlock()

	if coll == nil {
		return nil
	}
	return coll.Close(ctx)
}

func (h *Handle) current() Collection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.coll
}

// Handles owns one Handle per connection string for the lifetime of the process.
type Handles struct {
	handles cmap.ConcurrentMap[string, *Handle]
	connect Connector
	logger  zerolog.Logger
}

// NewHandles creates an empty registry.
func NewHandles(connect Connector, logger zerolog.Logger) *Handles {
	return &Handles{
		handles: cmap.New[*Handle](),
		connect: connect,
		logger:  logger,
	}
}

// Get returns the handle for uri, creating it on first use.
func (r *Handles) Get(uri string) *Handle {
	if h, ok := r.handles.Get(uri); ok {
		return h
	}

	return r.handles.Upsert(uri, nil, func(exist bool, valueInMap *Handle, _ *Handle) *Handle {
		if exist {
			return valueInMap
		}
		return NewHandle(uri, r.connect, r.logger)
	})
}

// Count returns the number of known connection strings.
func (r *Handles) Count() int {
	return r.handles.Count()
}

// Close disconnects every handle.
func (r *Handles) Close(ctx context.Context) error {
	var errs []error
	for item := range r.handles.IterBuffered() {
		if err := item.Val.Close(ctx); err != nil {
			r.logger.Error().Err(err).Str("uri", redact(item.Key)).Msg("Failed to close collection store")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
