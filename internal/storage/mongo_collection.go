package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/benmeehan/location-recorder/internal/constants"
)

const mongoIDField = "_id"

// mongoCollection implements Collection with the MongoDB driver.
type mongoCollection struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func dialMongo(ctx context.Context, uri string, opts DialOptions) (Collection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := opts.Database
	if database == "" {
		database = constants.DefaultDatabaseName
	}
	collection := opts.Collection
	if collection == "" {
		collection = constants.DefaultCollectionName
	}

	return &mongoCollection{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *mongoCollection) InsertOne(ctx context.Context, doc Document) error {
	_, err := m.collection.InsertOne(ctx, map[string]any(doc))
	if err != nil {
		return fmt.Errorf("failed to insert location into MongoDB: %w", err)
	}
	return nil
}

func (m *mongoCollection) FindAll(ctx context.Context, sortField string) ([]Document, error) {
	findOpts := options.Find()
	if sortField != "" {
		findOpts.SetSort(bson.D{{Key: sortField, Value: -1}})
	}

	cursor, err := m.collection.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		doc, err := documentFromBSON(cursor.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read MongoDB cursor: %w", err)
	}
	return docs, nil
}

func (m *mongoCollection) IDField() string {
	return mongoIDField
}

func (m *mongoCollection) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// documentFromBSON converts a stored document into plain JSON values through
// relaxed extended JSON, so numbers come back as float64 and nested documents as
// maps, the same shapes the file store produces.
func documentFromBSON(raw bson.Raw) (Document, error) {
	extJSON, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert MongoDB document: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(extJSON, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode MongoDB document: %w", err)
	}
	return doc, nil
}
