package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrNoDocuments is returned when a filter matches no stored document.
	ErrNoDocuments = errors.New("no document found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidID is returned when an identity value has the wrong shape for the backend.
	ErrInvalidID = errors.New("invalid identity value")
)

// Document is the field map exchanged with the database clients. Filters,
// inserted documents and results all use this shape; the identity lives under "_id".
type Document = map[string]interface{}

// DBClient defines the interface for a generic database client.
// It abstracts common database operations across different database types (e.g., MongoDB, SQL).
type DBClient interface {
	// Connect establishes a connection to the database.
	// It takes a context for cancellation and timeouts, and a DSN (Data Source Name) string.
	// Returns an error if the connection fails.
	Connect(ctx context.Context, dsn string) error

	// Disconnect closes the database connection.
	Disconnect(ctx context.Context) error

	// InsertOne inserts a single document into the specified collection/table.
	// Returns the identity the store assigned to the document.
	InsertOne(ctx context.Context, collectionName string, document Document) (interface{}, error)

	// FindOne retrieves the first document matching the filter.
	// Returns an error wrapping ErrNoDocuments when nothing matches.
	FindOne(ctx context.Context, collectionName string, filter Document) (Document, error)

	// FindMany retrieves every document matching the filter in insertion order.
	// An empty filter matches the whole collection.
	FindMany(ctx context.Context, collectionName string, filter Document) ([]Document, error)

	// FindOneAndUpdate sets the fields in 'set', removes the fields named in 'unset'
	// and returns the document as it is after the change.
	FindOneAndUpdate(ctx context.Context, collectionName string, filter Document, set Document, unset []string) (Document, error)

	// DeleteOne deletes a single document matching the filter.
	// Returns the count of deleted documents and an error.
	DeleteOne(ctx context.Context, collectionName string, filter Document) (int64, error)

	// CountDocuments returns the number of documents matching the filter.
	CountDocuments(ctx context.Context, collectionName string, filter Document) (int64, error)

	// EnsureSchema applies a backend specific schema object (index model,
	// DDL statement) to the collection/table.
	EnsureSchema(ctx context.Context, collectionName string, schema interface{}) error

	// Ping checks the health of the database connection.
	// Returns an error if the database is unreachable or unhealthy.
	Ping(ctx context.Context) error
}
