package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/haguru/clinica/internal/interfaces"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresDatabaseClient_Defaults(t *testing.T) {
	client := NewPostgresDatabaseClient(0, 0, 0, []string{"pacientes"}).(*PostgresDatabaseClient)
	assert.Equal(t, DefaultMaxOpenConns, client.MaxOpenConns)
	assert.Equal(t, DefaultMaxIdleConns, client.MaxIdleConns)
	assert.Equal(t, DefaultConnMaxLifetime, client.ConnMaxLifetime)
	assert.True(t, client.validTables["pacientes"])
}

func TestBuildWhere(t *testing.T) {
	tests := []struct {
		name      string
		filter    interfaces.Document
		first     int
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "empty filter",
			filter:    nil,
			first:     1,
			wantWhere: "",
			wantArgs:  []interface{}{},
		},
		{
			name:      "identity only",
			filter:    interfaces.Document{"_id": "0b3c"},
			first:     1,
			wantWhere: " WHERE id = $1",
			wantArgs:  []interface{}{"0b3c"},
		},
		{
			name:      "string field uses the indexed expression",
			filter:    interfaces.Document{"DNI": "123"},
			first:     1,
			wantWhere: " WHERE document->>'DNI' = $1",
			wantArgs:  []interface{}{"123"},
		},
		{
			name:      "identity and field with offset",
			filter:    interfaces.Document{"_id": "0b3c", "Estado": "pendiente"},
			first:     3,
			wantWhere: " WHERE document->>'Estado' = $3 AND id = $4",
			wantArgs:  []interface{}{"pendiente", "0b3c"},
		},
		{
			name:      "numbers and booleans compare as text",
			filter:    interfaces.Document{"Activo": true, "Edad": float64(30)},
			first:     1,
			wantWhere: " WHERE document->>'Activo' = $1 AND document->>'Edad' = $2",
			wantArgs:  []interface{}{"true", "30"},
		},
		{
			name:      "quotes in keys are escaped",
			filter:    interfaces.Document{"O'Brien": "x"},
			first:     1,
			wantWhere: " WHERE document->>'O''Brien' = $1",
			wantArgs:  []interface{}{"x"},
		},
		{
			name:      "nested values use containment",
			filter:    interfaces.Document{"Tags": []interface{}{"a"}},
			first:     1,
			wantWhere: " WHERE document @> $1::jsonb",
			wantArgs:  []interface{}{`{"Tags":["a"]}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args, err := buildWhere(tt.filter, tt.first)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMarshalDocument_DropsIdentity(t *testing.T) {
	got, err := marshalDocument(interfaces.Document{"_id": "x", "DNI": "123"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"DNI":"123"}`, got)

	_, err = marshalDocument(interfaces.Document{"bad": make(chan int)})
	assert.Error(t, err)
}

type fakeRow struct {
	id   string
	body []byte
	err  error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.id
	*dest[1].(*[]byte) = r.body
	return nil
}

func TestScanDocument(t *testing.T) {
	doc, err := scanDocument(fakeRow{id: "42", body: []byte(`{"DNI":"123","Nombre":"Ana"}`)})
	require.NoError(t, err)
	assert.Equal(t, interfaces.Document{"_id": "42", "DNI": "123", "Nombre": "Ana"}, doc)

	_, err = scanDocument(fakeRow{id: "42", body: []byte(`{not json`)})
	assert.Error(t, err)

	_, err = scanDocument(fakeRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "no rows", err: sql.ErrNoRows, want: interfaces.ErrNoDocuments},
		{name: "unique violation", err: &pq.Error{Code: "23505", Constraint: "pacientes_dni_unique"}, want: interfaces.ErrDuplicateKey},
		{name: "wrapped unique violation", err: fmt.Errorf("exec: %w", &pq.Error{Code: "23505"}), want: interfaces.ErrDuplicateKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(classifyError("op", tt.err), tt.want))
		})
	}

	other := errors.New("connection reset")
	got := classifyError("op", other)
	assert.True(t, errors.Is(got, other))
	assert.False(t, errors.Is(got, interfaces.ErrDuplicateKey))
	assert.False(t, errors.Is(got, interfaces.ErrNoDocuments))
}

func TestPostgresDatabaseClient_NotConnected(t *testing.T) {
	client := NewPostgresDatabaseClient(1, 1, 0, []string{"pacientes"})
	ctx := context.Background()

	_, err := client.InsertOne(ctx, "pacientes", interfaces.Document{"DNI": "1"})
	assert.Error(t, err)
	_, err = client.FindMany(ctx, "facturas", nil)
	assert.Error(t, err)
	assert.Error(t, client.Ping(ctx))
	assert.Error(t, client.EnsureSchema(ctx, "pacientes", "CREATE TABLE x ()"))
	assert.NoError(t, client.Disconnect(ctx))
	assert.Error(t, client.Connect(ctx, ""))
}
