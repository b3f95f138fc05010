package storage

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ConnectionSource reports the database connection string currently configured.
// An empty string means no database is configured.
type ConnectionSource interface {
	ConnectionString() string
}

// SelectKind maps a connection string to the backend that serves it.
func SelectKind(connectionString string) Kind {
	if strings.TrimSpace(connectionString) == "" {
		return KindFile
	}
	return KindCollection
}

// Selector picks the backend for each call. The connection string is read again
// on every Select, so a configuration change switches backends for later calls.
type Selector struct {
	source           ConnectionSource
	fileStore        *FileStore
	handles          *Handles
	operationTimeout time.Duration
	logger           zerolog.Logger
}

// NewSelector creates a Selector. Collection stores for the same connection string
// share one Handle from handles.
func NewSelector(source ConnectionSource, fileStore *FileStore, handles *Handles,
	operationTimeout time.Duration, logger zerolog.Logger) *Selector {
	return &Selector{
		source:           source,
		fileStore:        fileStore,
		handles:          handles,
		operationTimeout: operationTimeout,
		logger:           logger,
	}
}

// Select returns the store for the current configuration.
func (s *Selector) Select() Store {
	uri := strings.TrimSpace(s.source.ConnectionString())
	if SelectKind(uri) == KindFile {
		return s.fileStore
	}
	return NewCollectionStore(s.handles.Get(uri), s.operationTimeout, s.logger)
}
