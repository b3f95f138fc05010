package storage

import (
	"context"
	"fmt"

	"github.com/benmeehan/location-recorder/internal/models"
)

// Kind tags the backend variant.
type Kind string

const (
	KindFile       Kind = "file"
	KindCollection Kind = "collection"
)

// Store is the persistence contract shared by both backends.
// Save failures are returned; List never fails and degrades to an empty slice.
type Store interface {
	Kind() Kind
	Save(ctx context.Context, record models.LocationData) error
	List(ctx context.Context) []models.LocationData
}

// WriteError is returned when a record could not be persisted.
type WriteError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
