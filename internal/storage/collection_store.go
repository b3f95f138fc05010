package storage

import (
	"context"
	"sort"
	"time"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/rs/zerolog"
)

// CollectionStore persists records as documents of a collection obtained from a
// shared Handle. Inserts propagate errors; reads degrade to an empty slice.
type CollectionStore struct {
	handle           *Handle
	operationTimeout time.Duration
	logger           zerolog.Logger
}

// NewCollectionStore creates a CollectionStore on top of a connection handle.
func NewCollectionStore(handle *Handle, operationTimeout time.Duration, logger zerolog.Logger) *CollectionStore {
	return &CollectionStore{
		handle:           handle,
		operationTimeout: operationTimeout,
		logger:           logger,
	}
}

// Insert stores the record as one document.
func (s *CollectionStore) Insert(ctx context.Context, record models.LocationData) error {
	coll, err := s.handle.Collection(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error connecting to collection store")
		return &WriteError{Kind: KindCollection, Op: "connect", Err: err}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := coll.InsertOne(ctx, Document(record.Document())); err != nil {
		s.logger.Error().Err(err).Msg("Error saving location to collection")
		return &WriteError{Kind: KindCollection, Op: "insert", Err: err}
	}
	return nil
}

// FetchAll returns every record, most recent timestamp first, without the
// backend identifier. Any retrieval error is logged and yields an empty slice.
func (s *CollectionStore) FetchAll(ctx context.Context) []models.LocationData {
	coll, err := s.handle.Collection(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error connecting to collection store")
		return []models.LocationData{}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	docs, err := coll.FindAll(ctx, models.FieldTimestamp)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error reading locations from collection")
		return []models.LocationData{}
	}

	records := make([]models.LocationData, 0, len(docs))
	for _, doc := range docs {
		delete(doc, coll.IDField())
		record, err := models.ValidateDocument(doc)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Skipping malformed location document")
			continue
		}
		records = append(records, record)
	}

	// Timestamps compare as strings; this is chronological only while every
	// record uses the same fixed-width ISO-8601 layout.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})
	return records
}

func (s *CollectionStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.operationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Kind implements Store.
func (s *CollectionStore) Kind() Kind {
	return KindCollection
}

// Save implements Store.
func (s *CollectionStore) Save(ctx context.Context, record models.LocationData) error {
	return s.Insert(ctx, record)
}

// List implements Store.
func (s *CollectionStore) List(ctx context.Context) []models.LocationData {
	return s.FetchAll(ctx)
}
