package storage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// dynamoIDField is the table key. It shares MongoDB's name so records may carry
// their own "id" field.
const dynamoIDField = "_id"

// DynamoDBAPI is the subset of the DynamoDB client used by the collection.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoTarget is the parsed form of dynamodb://<table>?region=<region>&endpoint=<url>.
type dynamoTarget struct {
	Table    string
	Region   string
	Endpoint string
}

func parseDynamoURI(uri string) (dynamoTarget, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return dynamoTarget{}, fmt.Errorf("invalid DynamoDB connection string: %w", err)
	}
	if u.Scheme != "dynamodb" {
		return dynamoTarget{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return dynamoTarget{}, fmt.Errorf("DynamoDB connection string has no table name")
	}

	q := u.Query()
	return dynamoTarget{
		Table:    u.Host,
		Region:   q.Get("region"),
		Endpoint: q.Get("endpoint"),
	}, nil
}

// dynamoCollection implements Collection on a DynamoDB table keyed by a string "_id".
type dynamoCollection struct {
	client    DynamoDBAPI
	tableName string
}

func newDynamoCollection(client DynamoDBAPI, tableName string) *dynamoCollection {
	return &dynamoCollection{
		client:    client,
		tableName: tableName,
	}
}

func dialDynamo(ctx context.Context, uri string) (Collection, error) {
	target, err := parseDynamoURI(uri)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if target.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(target.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
		}
	})

	return newDynamoCollection(client, target.Table), nil
}

func (d *dynamoCollection) InsertOne(ctx context.Context, doc Document) error {
	item, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	item[dynamoIDField] = &dynamodbtypes.AttributeValueMemberS{Value: uuid.NewString()}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": dynamoIDField,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save location to DynamoDB: %w", err)
	}
	return nil
}

// FindAll scans the whole table. DynamoDB cannot order a scan, so sortField is
// left to the caller.
func (d *dynamoCollection) FindAll(ctx context.Context, _ string) ([]Document, error) {
	var docs []Document
	var lastEvaluatedKey map[string]dynamodbtypes.AttributeValue

	for {
		input := &dynamodb.ScanInput{
			TableName: aws.String(d.tableName),
		}
		if lastEvaluatedKey != nil {
			input.ExclusiveStartKey = lastEvaluatedKey
		}

		result, err := d.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan locations: %w", err)
		}

		for _, item := range result.Items {
			var doc map[string]any
			if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
				return nil, fmt.Errorf("failed to unmarshal location: %w", err)
			}
			docs = append(docs, Document(doc))
		}

		lastEvaluatedKey = result.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	return docs, nil
}

func (d *dynamoCollection) IDField() string {
	return dynamoIDField
}

// Close is a no-op; the SDK client holds no connection to release.
func (d *dynamoCollection) Close(context.Context) error {
	return nil
}
