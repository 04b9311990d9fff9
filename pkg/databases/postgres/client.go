package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haguru/clinica/internal/interfaces"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second

	// IDFIELD is the document key the row id is exposed under.
	IDFIELD = "_id"

	uniqueViolation = "23505"
)

// PostgresDatabaseClient implements the DBClient interface on PostgreSQL by
// storing every document as a JSONB value. Each table has the layout
//
//	seq BIGSERIAL, id TEXT PRIMARY KEY, document JSONB NOT NULL, created_at TIMESTAMPTZ
//
// Filters on the id use the column, every other key is matched with JSONB containment.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	validTables     map[string]bool
}

// NewPostgresDatabaseClient builds a client restricted to the given tables.
// Zero pool settings fall back to the package defaults.
func NewPostgresDatabaseClient(maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration, tables []string) interfaces.DBClient {
	if maxOpenConns <= 0 {
		maxOpenConns = DefaultMaxOpenConns
	}
	if maxIdleConns <= 0 {
		maxIdleConns = DefaultMaxIdleConns
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = DefaultConnMaxLifetime
	}
	validTables := make(map[string]bool, len(tables))
	for _, t := range tables {
		validTables[t] = true
	}
	return &PostgresDatabaseClient{
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		validTables:     validTables,
	}
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	var err error
	p.db, err = sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	p.db.SetMaxOpenConns(p.MaxOpenConns)
	p.db.SetMaxIdleConns(p.MaxIdleConns)
	p.db.SetConnMaxLifetime(p.ConnMaxLifetime)

	return p.Ping(ctx)
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// InsertOne stores the document under a freshly generated UUID and returns it.
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}

	body, err := marshalDocument(document)
	if err != nil {
		return nil, err
	}

	// tableName is checked against the allow-list above.
	query := fmt.Sprintf("INSERT INTO %s (id, document) VALUES ($1, $2) RETURNING id", tableName) // #nosec G201

	var insertedID string
	err = p.db.QueryRowContext(ctx, query, uuid.NewString(), body).Scan(&insertedID)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to insert into %s", tableName), err)
	}
	return insertedID, nil
}

// FindOne retrieves the first document matching the filter.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document) (interfaces.Document, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}

	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, document FROM %s%s ORDER BY seq LIMIT 1", tableName, where) // #nosec G201

	doc, err := scanDocument(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to find one in %s", tableName), err)
	}
	return doc, nil
}

// FindMany retrieves every document matching the filter in insertion order.
func (p *PostgresDatabaseClient) FindMany(ctx context.Context, tableName string, filter interfaces.Document) ([]interfaces.Document, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}

	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT id, document FROM %s%s ORDER BY seq", tableName, where) // #nosec G201

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find many in %s: %w", tableName, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("failed to close rows: %v", cerr)
		}
	}()

	results := []interfaces.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// FindOneAndUpdate merges 'set' into the stored document, removes the 'unset'
// keys and returns the row as it is after the update.
func (p *PostgresDatabaseClient) FindOneAndUpdate(ctx context.Context, tableName string, filter interfaces.Document, set interfaces.Document, unset []string) (interfaces.Document, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}

	body, err := marshalDocument(set)
	if err != nil {
		return nil, err
	}
	if unset == nil {
		unset = []string{}
	}

	where, args, err := buildWhere(filter, 3)
	if err != nil {
		return nil, err
	}
	if where == "" {
		return nil, fmt.Errorf("PostgreSQL FindOneAndUpdate requires a non-empty filter")
	}

	query := fmt.Sprintf("UPDATE %s SET document = (document || $1::jsonb) - $2::text[]%s RETURNING id, document", tableName, where) // #nosec G201

	args = append([]interface{}{body, pq.Array(unset)}, args...)
	doc, err := scanDocument(p.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to update one in %s", tableName), err)
	}
	return doc, nil
}

// DeleteOne deletes the documents matching the filter. The filter is expected
// to select a single row by id.
func (p *PostgresDatabaseClient) DeleteOne(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}

	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return 0, err
	}
	if where == "" {
		return 0, fmt.Errorf("PostgreSQL DeleteOne requires a non-empty filter")
	}

	query := fmt.Sprintf("DELETE FROM %s%s", tableName, where) // #nosec G201

	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rowsAffected, nil
}

// CountDocuments returns the number of rows matching the filter.
func (p *PostgresDatabaseClient) CountDocuments(ctx context.Context, tableName string, filter interfaces.Document) (int64, error) {
	if err := p.checkTable(tableName); err != nil {
		return 0, err
	}

	where, args, err := buildWhere(filter, 1)
	if err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", tableName, where) // #nosec G201
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema executes a DDL statement (CREATE TABLE / CREATE INDEX) for the table.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interface{}) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}

	stmt, ok := schema.(string)
	if !ok || stmt == "" {
		return fmt.Errorf("EnsureSchema expects schema to be a DDL statement string for %s", tableName)
	}
	if _, err := p.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to apply schema to %s: %w", tableName, err)
	}
	return nil
}

func (p *PostgresDatabaseClient) checkTable(tableName string) error {
	if !p.validTables[tableName] {
		return fmt.Errorf("PostgresDatabaseClient: Invalid table name: %s", tableName)
	}
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return nil
}

// buildWhere turns a filter into a WHERE clause whose placeholders start at
// $first. The identity key filters on the id column. Scalar values compare
// against document->>'key', the expression the lookup and unique indexes are
// built on; objects and arrays fall back to a JSONB containment test.
func buildWhere(filter interfaces.Document, first int) (string, []interface{}, error) {
	clauses := []string{}
	args := []interface{}{}
	contained := map[string]interface{}{}

	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := filter[key]
		if key == IDFIELD {
			clauses = append(clauses, fmt.Sprintf("id = $%d", first+len(args)))
			args = append(args, fmt.Sprint(value))
			continue
		}
		text, ok, err := scalarText(value)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			contained[key] = value
			continue
		}
		clauses = append(clauses, fmt.Sprintf("document->>%s = $%d", pq.QuoteLiteral(key), first+len(args)))
		args = append(args, text)
	}

	if len(contained) > 0 {
		body, err := json.Marshal(contained)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		clauses = append(clauses, fmt.Sprintf("document @> $%d::jsonb", first+len(args)))
		args = append(args, string(body))
	}

	if len(clauses) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// scalarText returns the text ->> yields for a JSON scalar. ok is false for
// null, objects and arrays.
func scalarText(value interface{}) (string, bool, error) {
	switch v := value.(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	case map[string]interface{}, []interface{}:
		return "", false, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", false, fmt.Errorf("failed to encode filter: %w", err)
	}
	if len(b) > 0 && (b[0] == '{' || b[0] == '[' || b[0] == '"') {
		return "", false, nil
	}
	return string(b), true, nil
}

// marshalDocument encodes a document without its identity key.
func marshalDocument(document interfaces.Document) (string, error) {
	body := make(map[string]interface{}, len(document))
	for k, v := range document {
		if k == IDFIELD {
			continue
		}
		body[k] = v
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(b), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (interfaces.Document, error) {
	var (
		id   string
		body []byte
	)
	if err := row.Scan(&id, &body); err != nil {
		return nil, err
	}
	doc := interfaces.Document{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	doc[IDFIELD] = id
	return doc, nil
}

// classifyError wraps driver errors in the interfaces sentinel errors.
func classifyError(msg string, err error) error {
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", msg, interfaces.ErrNoDocuments)
	case errors.As(err, &pqErr) && pqErr.Code == uniqueViolation:
		return fmt.Errorf("%s: %w: %s", msg, interfaces.ErrDuplicateKey, pqErr.Constraint)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}
