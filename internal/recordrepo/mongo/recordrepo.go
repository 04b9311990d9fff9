package mongo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/recordrepo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongosdk "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecordRepository implements RecordRepository on top of a MongoDB DBClient.
// Identities are ObjectIDs in the store and hex strings everywhere else.
type MongoRecordRepository struct {
	dbClient interfaces.DBClient
}

// NewMongoRecordRepository creates a new MongoDB repository instance.
func NewMongoRecordRepository(dbClient interfaces.DBClient) (interfaces.RecordRepository, error) {
	if dbClient == nil {
		return nil, fmt.Errorf(recordrepo.ErrDBClientNil)
	}
	return &MongoRecordRepository{dbClient: dbClient}, nil
}

// Insert stores the fields and returns the persisted record with its identity.
func (r *MongoRecordRepository) Insert(ctx context.Context, collection models.Collection, fields interfaces.Document) (models.Record, error) {
	insertedID, err := r.dbClient.InsertOne(ctx, collection.String(), fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToInsert, err)
	}

	objID, ok := insertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: %T", recordrepo.ErrUnexpectedIDType, insertedID)
	}

	record := models.Record{}
	for k, v := range fields {
		if k != models.IDField {
			record[k] = v
		}
	}
	record[models.IDField] = objID.Hex()
	return record, nil
}

func (r *MongoRecordRepository) FindAll(ctx context.Context, collection models.Collection) ([]models.Record, error) {
	return r.find(ctx, collection, interfaces.Document{})
}

// FindByID returns an error wrapping interfaces.ErrInvalidID when id is not
// a valid ObjectID hex string.
func (r *MongoRecordRepository) FindByID(ctx context.Context, collection models.Collection, id string) (models.Record, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.dbClient.FindOne(ctx, collection.String(), interfaces.Document{models.IDField: objID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	return toRecord(doc), nil
}

func (r *MongoRecordRepository) FindByField(ctx context.Context, collection models.Collection, field string, value interface{}) ([]models.Record, error) {
	return r.find(ctx, collection, interfaces.Document{field: value})
}

func (r *MongoRecordRepository) UpdateByID(ctx context.Context, collection models.Collection, id string, set interfaces.Document, unset []string) (models.Record, error) {
	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.dbClient.FindOneAndUpdate(ctx, collection.String(), interfaces.Document{models.IDField: objID}, set, unset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToUpdate, err)
	}
	return toRecord(doc), nil
}

func (r *MongoRecordRepository) DeleteByID(ctx context.Context, collection models.Collection, id string) (bool, error) {
	objID, err := parseID(id)
	if err != nil {
		return false, err
	}

	deleted, err := r.dbClient.DeleteOne(ctx, collection.String(), interfaces.Document{models.IDField: objID})
	if err != nil {
		return false, fmt.Errorf("%s: %w", recordrepo.ErrFailedToDelete, err)
	}
	return deleted > 0, nil
}

func (r *MongoRecordRepository) Count(ctx context.Context, collection models.Collection) (int64, error) {
	count, err := r.dbClient.CountDocuments(ctx, collection.String(), interfaces.Document{})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", recordrepo.ErrFailedToCount, err)
	}
	return count, nil
}

// EnsureIndices creates a unique index for every uniqueness-constrained field
// and a plain index for every field exposed for lookups.
func (r *MongoRecordRepository) EnsureIndices(ctx context.Context) error {
	for _, collection := range models.Collections() {
		descriptor, err := models.Lookup(collection)
		if err != nil {
			return err
		}
		for _, model := range indexModels(descriptor) {
			if err := r.dbClient.EnsureSchema(ctx, collection.String(), model); err != nil {
				return fmt.Errorf("%s on %s: %w", recordrepo.ErrFailedToEnsureIndex, collection, err)
			}
		}
	}
	return nil
}

// Close disconnects the MongoDB client.
func (r *MongoRecordRepository) Close(ctx context.Context) error {
	return r.dbClient.Disconnect(ctx)
}

func (r *MongoRecordRepository) find(ctx context.Context, collection models.Collection, filter interfaces.Document) ([]models.Record, error) {
	docs, err := r.dbClient.FindMany(ctx, collection.String(), filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}
	return records, nil
}

func indexModels(descriptor models.Descriptor) []mongosdk.IndexModel {
	indexes := []mongosdk.IndexModel{}
	unique := map[string]bool{}
	for _, field := range descriptor.UniqueFields {
		unique[field] = true
		indexes = append(indexes, mongosdk.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		})
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
		indexes = append(indexes, mongosdk.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetName(field + "_idx"),
		})
	}
	return indexes
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q: %v", interfaces.ErrInvalidID, id, err)
	}
	return objID, nil
}

// toRecord converts BSON specific values into plain Go values.
func toRecord(doc interfaces.Document) models.Record {
	record := make(models.Record, len(doc))
	for k, v := range doc {
		record[k] = normalize(v)
	}
	return record
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	case int32:
		return int64(val)
	case bson.M:
		return map[string]interface{}(toRecord(interfaces.Document(val)))
	case bson.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
