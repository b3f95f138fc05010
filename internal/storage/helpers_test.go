package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/stretchr/testify/require"
)

// memoryCollection is an unordered in-memory Collection that assigns "_id" like MongoDB.
type memoryCollection struct {
	mu        sync.Mutex
	docs      []Document
	nextID    int
	insertErr error
	findErr   error
	closed    bool
}

func (m *memoryCollection) InsertOne(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return m.insertErr
	}

	stored, err := roundTrip(doc)
	if err != nil {
		return err
	}
	m.nextID++
	stored[mongoIDField] = fmt.Sprintf("id-%d", m.nextID)
	m.docs = append(m.docs, stored)
	return nil
}

func (m *memoryCollection) FindAll(_ context.Context, _ string) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}

	out := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		copied, err := roundTrip(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, copied)
	}
	return out, nil
}

func (m *memoryCollection) IDField() string {
	return mongoIDField
}

func (m *memoryCollection) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func roundTrip(doc Document) (Document, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var out Document
	err = json.Unmarshal(raw, &out)
	return out, err
}

// staticConnector always hands out the same collection.
func staticConnector(coll Collection) Connector {
	return func(context.Context, string) (Collection, error) {
		return coll, nil
	}
}

func testRecord(t *testing.T, timestamp string, latitude float64) models.LocationData {
	t.Helper()

	payload := fmt.Sprintf(`{
		"latitude": %v,
		"longitude": 13.405,
		"accuracy": 20,
		"altitude": null,
		"timestamp": %q,
		"deviceInfo": {"userAgent": "Y", "language": "fr-FR", "platform": "MacIntel", "screenWidth": 1440}
	}`, latitude, timestamp)

	record, err := models.Validate([]byte(payload))
	require.NoError(t, err)
	return record
}
