package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/recordrepo"

	"github.com/google/uuid"
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	document JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresRecordRepository implements RecordRepository on top of the JSONB
// PostgreSQL DBClient. Identities are UUID strings.
type PostgresRecordRepository struct {
	dbClient interfaces.DBClient
}

// NewPostgresRecordRepository creates a new PostgreSQL repository instance.
func NewPostgresRecordRepository(dbClient interfaces.DBClient) (interfaces.RecordRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf(recordrepo.ErrDBClientNil)
	}
	return &PostgresRecordRepository{dbClient: dbClient}, nil
}

// Insert stores the fields and returns the persisted record with its identity.
func (r *PostgresRecordRepository) Insert(ctx context.Context, collection models.Collection, fields interfaces.Document) (models.Record, error) {
	insertedID, err := r.dbClient.InsertOne(ctx, collection.String(), fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToInsert, err)
	}

	id, ok := insertedID.(string)
	if !ok {
		return nil, fmt.Errorf("%s: %T", recordrepo.ErrUnexpectedIDType, insertedID)
	}

	record := models.Record{}
	for k, v := range fields {
		if k != models.IDField {
			record[k] = v
		}
	}
	record[models.IDField] = id
	return record, nil
}

func (r *PostgresRecordRepository) FindAll(ctx context.Context, collection models.Collection) ([]models.Record, error) {
	return r.find(ctx, collection, interfaces.Document{})
}

// FindByID returns an error wrapping interfaces.ErrInvalidID when id is not a UUID.
func (r *PostgresRecordRepository) FindByID(ctx context.Context, collection models.Collection, id string) (models.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.dbClient.FindOne(ctx, collection.String(), interfaces.Document{models.IDField: key})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	return models.Record(doc), nil
}

func (r *PostgresRecordRepository) FindByField(ctx context.Context, collection models.Collection, field string, value interface{}) ([]models.Record, error) {
	return r.find(ctx, collection, interfaces.Document{field: value})
}

func (r *PostgresRecordRepository) UpdateByID(ctx context.Context, collection models.Collection, id string, set interfaces.Document, unset []string) (models.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.dbClient.FindOneAndUpdate(ctx, collection.String(), interfaces.Document{models.IDField: key}, set, unset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToUpdate, err)
	}
	return models.Record(doc), nil
}

func (r *PostgresRecordRepository) DeleteByID(ctx context.Context, collection models.Collection, id string) (bool, error) {
	key, err := parseID(id)
	if err != nil {
		return false, err
	}

	deleted, err := r.dbClient.DeleteOne(ctx, collection.String(), interfaces.Document{models.IDField: key})
	if err != nil {
		return false, fmt.Errorf("%s: %w", recordrepo.ErrFailedToDelete, err)
	}
	return deleted > 0, nil
}

func (r *PostgresRecordRepository) Count(ctx context.Context, collection models.Collection) (int64, error) {
	count, err := r.dbClient.CountDocuments(ctx, collection.String(), interfaces.Document{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", recordrepo.ErrFailedToCount, err)
	}
	return count, nil
}

// EnsureIndices creates the table of every collection followed by its
// unique and lookup expression indexes.
func (r *PostgresRecordRepository) EnsureIndices(ctx context.Context) error {
	for _, collection := range models.Collections() {
		descriptor, err := models.Lookup(collection)
		if err != nil {
			return err
		}
		for _, stmt := range schemaStatements(descriptor) {
			if err := r.dbClient.EnsureSchema(ctx, collection.String(), stmt); err != nil {
				return fmt.Errorf("%s on %s: %w", recordrepo.ErrFailedToEnsureIndex, collection, err)
			}
		}
	}
	return nil
}

// Close closes the PostgreSQL connection pool.
func (r *PostgresRecordRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func (r *PostgresRecordRepository) find(ctx context.Context, collection models.Collection, filter interfaces.Document) ([]models.Record, error) {
	docs, err := r.dbClient.FindMany(ctx, collection.String(), filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, models.Record(doc))
	}
	return records, nil
}

// schemaStatements returns the DDL for a collection. Field names come from
// the registry, never from requests.
func schemaStatements(descriptor models.Descriptor) []string {
	table := descriptor.Collection.String()
	stmts := []string{fmt.Sprintf(createTableStmt, table)}

	unique := map[string]bool{}
	for _, field := range descriptor.UniqueFields {
		unique[field] = true
		stmts = append(stmts, fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s_%s_unique ON %s ((document->>'%s'))",
			table, field, table, field))
	}

	indexed := make([]string, 0, len(descriptor.IndexedFields))
	for _, field := range descriptor.IndexedFields {
		indexed = append(indexed, field)
	}
	sort.Strings(indexed)
	for _, field := range indexed {
		if unique[field] {
			continue
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s_%s_idx ON %s ((document->>'%s'))",
			table, field, table, field))
	}
	return stmts
}

func parseID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", interfaces.ErrInvalidID, id, err)
	}
	return parsed.String(), nil
}
