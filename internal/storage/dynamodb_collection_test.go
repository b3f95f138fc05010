package storage

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo stores items in memory and pages scans by pageSize.
type fakeDynamo struct {
	mu       sync.Mutex
	items    []map[string]dynamodbtypes.AttributeValue
	lastPut  *dynamodb.PutItemInput
	pageSize int
	scans    int
}

func (f *fakeDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, params.Item)
	f.lastPut = params
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	start := 0
	if key, ok := params.ExclusiveStartKey["cursor"].(*dynamodbtypes.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(key.Value)
	}

	end := start + f.pageSize
	if end >= len(f.items) {
		return &dynamodb.ScanOutput{Items: f.items[start:]}, nil
	}
	return &dynamodb.ScanOutput{
		Items: f.items[start:end],
		LastEvaluatedKey: map[string]dynamodbtypes.AttributeValue{
			"cursor": &dynamodbtypes.AttributeValueMemberN{Value: strconv.Itoa(end)},
		},
	}, nil
}

// TestParseDynamoURI tests connection string parsing.
func TestParseDynamoURI(t *testing.T) {
	target, err := parseDynamoURI("dynamodb://locations?region=eu-central-1&endpoint=http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, dynamoTarget{Table: "locations", Region: "eu-central-1", Endpoint: "http://localhost:8000"}, target)

	_, err = parseDynamoURI("dynamodb://?region=eu-central-1")
	assert.Error(t, err)

	_, err = parseDynamoURI("mongodb://locations")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

// TestDynamoCollection_InsertAndScan tests identifier assignment and paginated scans.
func TestDynamoCollection_InsertAndScan(t *testing.T) {
	client := &fakeDynamo{pageSize: 2}
	coll := newDynamoCollection(client, "locations")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, coll.InsertOne(ctx, Document{"latitude": float64(i)}))
	}

	docs, err := coll.FindAll(ctx, models.FieldTimestamp)
	require.NoError(t, err)

	assert.Len(t, docs, 5)
	assert.Equal(t, 3, client.scans)
	ids := map[string]bool{}
	for _, doc := range docs {
		id, ok := doc[dynamoIDField].(string)
		require.True(t, ok)
		ids[id] = true
	}
	assert.Len(t, ids, 5)
	assert.Equal(t, "locations", aws.ToString(client.lastPut.TableName))
	assert.Equal(t, "attribute_not_exists(#id)", aws.ToString(client.lastPut.ConditionExpression))
}

// TestDynamoCollection_Store tests ordering and identifier stripping through CollectionStore.
func TestDynamoCollection_Store(t *testing.T) {
	coll := newDynamoCollection(&fakeDynamo{pageSize: 10}, "locations")
	handle := NewHandle("dynamodb://locations", staticConnector(coll), zerolog.Nop())
	store := NewCollectionStore(handle, time.Second, zerolog.Nop())
	ctx := context.Background()

	t1 := testRecord(t, "2025-01-01T10:00:00.000Z", 1)
	t2 := testRecord(t, "2025-01-01T11:00:00.000Z", 2)
	t3 := testRecord(t, "2025-01-01T12:00:00.000Z", 3)
	for _, r := range []models.LocationData{t1, t3, t2} {
		require.NoError(t, store.Insert(ctx, r))
	}

	got := store.FetchAll(ctx)

	if diff := cmp.Diff([]models.LocationData{t3, t2, t1}, got); diff != "" {
		t.Errorf("FetchAll() mismatch (-want +got):\n%s", diff)
	}
	for _, r := range got {
		_, hasID := r.Extra[dynamoIDField]
		assert.False(t, hasID)
	}
}

// TestDynamoCollection_ClientIDField tests that a record's own "id" field survives the table key.
func TestDynamoCollection_ClientIDField(t *testing.T) {
	coll := newDynamoCollection(&fakeDynamo{pageSize: 10}, "locations")
	store := NewCollectionStore(NewHandle("dynamodb://locations", staticConnector(coll), zerolog.Nop()), time.Second, zerolog.Nop())
	ctx := context.Background()

	record := testRecord(t, "2025-01-01T10:00:00.000Z", 1)
	record.Extra["id"] = "trip-42"
	require.NoError(t, store.Insert(ctx, record))

	got := store.FetchAll(ctx)

	require.Len(t, got, 1)
	assert.Equal(t, "trip-42", got[0].Extra["id"])
	if diff := cmp.Diff(record, got[0]); diff != "" {
		t.Errorf("FetchAll() mismatch (-want +got):\n%s", diff)
	}
}
