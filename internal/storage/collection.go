package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Document is one stored record as seen by a document database.
type Document map[string]any

// Collection is the driver-facing side of CollectionStore.
type Collection interface {
	// InsertOne stores the document; the backend assigns its identifier.
	InsertOne(ctx context.Context, doc Document) error
	// FindAll returns every document. Drivers that can sort server-side order the
	// result by sortField descending; others may return them unordered.
	FindAll(ctx context.Context, sortField string) ([]Document, error)
	// IDField is the name of the backend-assigned identifier attribute.
	IDField() string
	Close(ctx context.Context) error
}

// DialOptions configure how a connection string is turned into a Collection.
type DialOptions struct {
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// Connector opens a collection for a connection string.
type Connector func(ctx context.Context, uri string) (Collection, error)

// ErrUnsupportedScheme is returned for connection strings no driver understands.
var ErrUnsupportedScheme = errors.New("unsupported connection string scheme")

// NewConnector returns a Connector that picks the driver from the URI scheme:
// mongodb:// and mongodb+srv:// use MongoDB, dynamodb:// uses DynamoDB.
func NewConnector(opts DialOptions) Connector {
	return func(ctx context.Context, uri string) (Collection, error) {
		if opts.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
			defer cancel()
		}

		switch scheme(uri) {
		case "mongodb", "mongodb+srv":
			return dialMongo(ctx, uri, opts)
		case "dynamodb":
			return dialDynamo(ctx, uri)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, redact(uri))
		}
	}
}

func scheme(uri string) string {
	s, _, found := strings.Cut(uri, "://")
	if !found {
		return ""
	}
	return strings.ToLower(s)
}

// redact strips credentials so connection strings can be logged.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return scheme(uri) + "://..."
	}
	return u.Redacted()
}
