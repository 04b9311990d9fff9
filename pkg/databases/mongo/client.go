package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/haguru/clinica/config"
	"github.com/haguru/clinica/internal/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	MAXPOOLSIZE = 20
	IDFIELD     = "_id"
)

// MongoDBClient implements the interfaces.DBClient interface for MongoDB operations.
type MongoDBClient struct {
	ServerOpts  *options.ServerAPIOptions
	client      *mongo.Client
	db          *mongo.Database
	timeout     time.Duration
	validFields map[string]map[string]bool // collection -> allowed field names
	logger      interfaces.Logger
}

// NewMongoDB returns a interface for db client. collections maps every valid
// collection name to the field names its documents may hold; anything else is
// stripped before it reaches the server.
func NewMongoDB(dbConfig *config.MongoDBConfig, collections map[string][]string, logger interfaces.Logger) (interfaces.DBClient, error) {
	if len(collections) == 0 {
		return nil, fmt.Errorf("MongoDBClient: at least one collection must be configured")
	}

	validFields := make(map[string]map[string]bool, len(collections))
	for name, fields := range collections {
		validFields[name] = config.ListToMap(fields)
	}

	db := &MongoDBClient{
		timeout:     dbConfig.Timeout,
		ServerOpts:  config.BuildServerAPIOptions(dbConfig.Options),
		validFields: validFields,
		logger:      logger,
	}

	return db, nil
}

// Connect establishes a connection to the MongoDB database using the provided DSN (Data Source Name).
// The DSN should be in the format "mongodb://<host>:<port>/<database>" or the SRV form.
// The database named in the DSN path becomes the active database for the client.
func (m *MongoDBClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("MongoDBClient: DSN is empty")
	}
	if !strings.HasPrefix(dsn, "mongodb://") && !strings.HasPrefix(dsn, "mongodb+srv://") {
		return fmt.Errorf("MongoDBClient: Invalid DSN format, expected 'mongodb://' or 'mongodb+srv://'")
	}

	databaseName, err := getDBNameFromMongoDSN(dsn)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed to extract database name from datasource name(dsn): %v", err)
	}

	m.logger.Info("MongoDBClient: Connecting", "database", databaseName)

	// Set a timeout for the connection
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	clientOptions := options.Client().ApplyURI(dsn)

	// Set the server API options if provided
	if m.ServerOpts != nil {
		clientOptions.SetServerAPIOptions(m.ServerOpts)
	}
	clientOptions.SetMaxPoolSize(MAXPOOLSIZE)
	clientOptions.SetReadPreference(readpref.PrimaryPreferred())

	m.client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	// Check if the connection is successful by pinging the server
	if err = m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDBClient: Failed to connect to MongoDB server: %v", err)
	}
	m.logger.Info("MongoDBClient: Connected to MongoDB server successfully", "database", databaseName)

	m.db = m.client.Database(databaseName)
	return nil
}

// Disconnect closes the connection to the MongoDB database.
// It checks if the client is not nil before attempting to disconnect.
func (m *MongoDBClient) Disconnect(ctx context.Context) error {
	m.logger.Info("MongoDBClient: Disconnecting")
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}

	return nil
}

// InsertOne inserts a document and returns its ID.
func (m *MongoDBClient) InsertOne(ctx context.Context, collectionName string, document interfaces.Document) (interface{}, error) {
	// Avoid logging the document itself, it holds personal data
	m.logger.Debug("MongoDBClient: Inserting one", "collection", collectionName)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	sanitizedDocument := m.sanitizeDocument(collectionName, document)

	res, err := m.db.Collection(collectionName).InsertOne(ctx, sanitizedDocument)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("MongoDBClient: Failed to insert one into %s", collectionName), err)
	}

	return res.InsertedID, nil
}

// FindOne retrieves the first document matching the filter.
func (m *MongoDBClient) FindOne(ctx context.Context, collectionName string, filter interfaces.Document) (interfaces.Document, error) {
	m.logger.Debug("MongoDBClient: Finding one", "collection", collectionName, "filter", filter)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	result := bson.M{}
	err := m.db.Collection(collectionName).FindOne(ctx, m.sanitizeFilter(collectionName, filter)).Decode(&result)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("MongoDBClient: Failed to find one in %s with filter: %v", collectionName, filter), err)
	}

	return interfaces.Document(result), nil
}

// FindMany retrieves multiple documents from the specified collection, oldest first.
func (m *MongoDBClient) FindMany(ctx context.Context, collectionName string, filter interfaces.Document) ([]interfaces.Document, error) {
	m.logger.Debug("MongoDBClient: Finding many", "collection", collectionName, "filter", filter)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	sanitizedFilter := m.sanitizeFilter(collectionName, filter)
	findOptions := options.Find().SetSort(bson.D{{Key: IDFIELD, Value: 1}})

	cursor, err := m.db.Collection(collectionName).Find(ctx, sanitizedFilter, findOptions)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("MongoDBClient: Finding many in %s with filter: %v failed", collectionName, sanitizedFilter), err)
	}

	defer func() {
		if err := cursor.Close(ctx); err != nil {
			m.logger.Warn("MongoDBClient: Failed to close cursor", "collection", collectionName, "error", err)
		}
	}()

	results := []interfaces.Document{}
	for cursor.Next(ctx) {
		doc := bson.M{}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("MongoDBClient: Failed to decode cursor: %v", err)
		}
		results = append(results, interfaces.Document(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("MongoDBClient: Cursor failed in %s: %w", collectionName, err)
	}

	return results, nil
}

// FindOneAndUpdate applies $set/$unset to the first matching document and
// returns the document after the update.
func (m *MongoDBClient) FindOneAndUpdate(ctx context.Context, collectionName string, filter interfaces.Document, set interfaces.Document, unset []string) (interfaces.Document, error) {
	m.logger.Debug("MongoDBClient: Updating one", "collection", collectionName, "filter", filter, "unset", unset)

	if err := m.checkCollection(collectionName); err != nil {
		return nil, err
	}

	update := bson.M{}
	if sanitizedSet := m.sanitizeDocument(collectionName, set); len(sanitizedSet) > 0 {
		update["$set"] = sanitizedSet
	}
	unsetDoc := bson.M{}
	for _, field := range unset {
		if m.validFields[collectionName][field] {
			unsetDoc[field] = ""
		}
	}
	if len(unsetDoc) > 0 {
		update["$unset"] = unsetDoc
	}
	if len(update) == 0 {
		return m.FindOne(ctx, collectionName, filter)
	}

	sanitizedFilter := m.sanitizeFilter(collectionName, filter)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	result := bson.M{}
	err := m.db.Collection(collectionName).FindOneAndUpdate(ctx, sanitizedFilter, update, opts).Decode(&result)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("MongoDBClient: Failed updating one in %s with filter %v", collectionName, sanitizedFilter), err)
	}

	return interfaces.Document(result), nil
}

// DeleteOne removes a single document from the specified collection using a filter.
// Returns the count of deleted documents and an error if the operation fails.
func (m *MongoDBClient) DeleteOne(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	m.logger.Debug("MongoDBClient: Deleting one", "collection", collectionName, "filter", filter)

	if err := m.checkCollection(collectionName); err != nil {
		return 0, err
	}

	sanitizedFilter := m.sanitizeFilter(collectionName, filter)
	if len(sanitizedFilter) == 0 {
		return 0, fmt.Errorf("MongoDBClient: Refusing to delete from %s with an empty filter", collectionName)
	}

	res, err := m.db.Collection(collectionName).DeleteOne(ctx, sanitizedFilter)
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed deleting one from %s with filter %v: %v", collectionName, sanitizedFilter, err)
	}

	return res.DeletedCount, nil
}

// CountDocuments returns the number of documents matching the filter.
func (m *MongoDBClient) CountDocuments(ctx context.Context, collectionName string, filter interfaces.Document) (int64, error) {
	if err := m.checkCollection(collectionName); err != nil {
		return 0, err
	}

	count, err := m.db.Collection(collectionName).CountDocuments(ctx, m.sanitizeFilter(collectionName, filter))
	if err != nil {
		return 0, fmt.Errorf("MongoDBClient: Failed counting documents in %s: %v", collectionName, err)
	}
	return count, nil
}

// Ping verifies the MongoDB connection health using a ping command.
func (m *MongoDBClient) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("MongoDBClient is not connected")
	}
	return m.client.Ping(ctx, nil)
}

// EnsureSchema creates the index described by schema, a mongo.IndexModel, on
// the collection. The collection is created by the server when missing.
func (m *MongoDBClient) EnsureSchema(ctx context.Context, collectionName string, schema interface{}) error {
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}

	model, ok := schema.(mongo.IndexModel)
	if !ok {
		return fmt.Errorf("EnsureSchema: expected mongo.IndexModel for MongoDB, got %T", schema)
	}

	name, err := m.db.Collection(collectionName).Indexes().CreateOne(ctx, model)
	if err != nil {
		return fmt.Errorf("MongoDBClient: Failed creating index on %s: %w", collectionName, err)
	}
	m.logger.Debug("MongoDBClient: Index ensured", "collection", collectionName, "index", name)
	return nil
}

func (m *MongoDBClient) checkCollection(collectionName string) error {
	if collectionName == "" {
		return fmt.Errorf("MongoDBClient: Collection name cannot be empty")
	}
	if _, ok := m.validFields[collectionName]; !ok {
		return fmt.Errorf("MongoDBClient: Invalid collection name: %s", collectionName)
	}
	if m.db == nil {
		return fmt.Errorf("MongoDBClient is not connected to a database")
	}
	return nil
}

// sanitizeDocument copies only the allowed fields of the collection. The ID
// field is dropped so callers can never set or overwrite an identity, and keys
// containing '$' or '.' are rejected to prevent operator injection.
func (m *MongoDBClient) sanitizeDocument(collectionName string, document interfaces.Document) bson.M {
	sanitized := bson.M{}
	allowed := m.validFields[collectionName]

	for key, value := range document {
		if key == IDFIELD {
			continue
		}
		if !allowed[key] || strings.ContainsAny(key, "$.") {
			m.logger.Warn("MongoDBClient: Skipping invalid or unsafe field name", "collection", collectionName, "field", key)
			continue
		}
		sanitized[key] = value
	}

	return sanitized
}

// sanitizeFilter is sanitizeDocument for query filters: the ID field is kept.
func (m *MongoDBClient) sanitizeFilter(collectionName string, filter interfaces.Document) bson.M {
	sanitized := m.sanitizeDocument(collectionName, filter)
	if id, ok := filter[IDFIELD]; ok {
		sanitized[IDFIELD] = id
	}
	return sanitized
}

// classifyError wraps driver errors in the interfaces sentinel errors.
func classifyError(msg string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", msg, interfaces.ErrNoDocuments)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w: %v", msg, interfaces.ErrDuplicateKey, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// getDBNameFromMongoDSN extracts the database name from a MongoDB DSN.
func getDBNameFromMongoDSN(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MongoDB DSN: %w", err)
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("no database name found in MongoDB DSN path")
	}

	// If the path contains additional segments (e.g., /db/collection), use only the first as the database name.
	if idx := strings.Index(dbName, "/"); idx != -1 {
		dbName = dbName[:idx]
	}

	return dbName, nil
}
