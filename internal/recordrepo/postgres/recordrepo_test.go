package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/interfaces/mocks"
	"github.com/haguru/clinica/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresRecordRepository(t *testing.T) {
	repo, err := NewPostgresRecordRepository(nil)
	assert.Error(t, err)
	assert.Nil(t, repo)

	repo, err = NewPostgresRecordRepository(mocks.NewMockDBClient(t))
	assert.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()

	tests := []struct {
		name      string
		setupMock func(m *mocks.MockDBClient)
		wantErr   error
		wantID    string
	}{
		{
			name: "success",
			setupMock: func(m *mocks.MockDBClient) {
				m.On("InsertOne", ctx, "pacientes", mock.Anything).Return(id, nil)
			},
			wantID: id,
		},
		{
			name: "duplicate",
			setupMock: func(m *mocks.MockDBClient) {
				m.On("InsertOne", ctx, "pacientes", mock.Anything).Return(nil, interfaces.ErrDuplicateKey)
			},
			wantErr: interfaces.ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbClient := mocks.NewMockDBClient(t)
			tt.setupMock(dbClient)
			repo, err := NewPostgresRecordRepository(dbClient)
			require.NoError(t, err)

			record, err := repo.Insert(ctx, models.Patients, interfaces.Document{"DNI": "123", "Nombre": "Ana"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, record.ID())
			assert.Equal(t, "Ana", record["Nombre"])
		})
	}
}

func TestFindByIDInvalid(t *testing.T) {
	repo, err := NewPostgresRecordRepository(mocks.NewMockDBClient(t))
	require.NoError(t, err)

	_, err = repo.FindByID(context.Background(), models.Patients, "not-a-uuid")
	assert.ErrorIs(t, err, interfaces.ErrInvalidID)

	deleted, err := repo.DeleteByID(context.Background(), models.Patients, "not-a-uuid")
	assert.ErrorIs(t, err, interfaces.ErrInvalidID)
	assert.False(t, deleted)
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	dbClient := mocks.NewMockDBClient(t)
	dbClient.On("FindOne", ctx, "medicos", interfaces.Document{models.IDField: id}).
		Return(interfaces.Document{models.IDField: id, "DNI": "9"}, nil)

	repo, err := NewPostgresRecordRepository(dbClient)
	require.NoError(t, err)

	record, err := repo.FindByID(ctx, models.Doctors, id)
	require.NoError(t, err)
	assert.Equal(t, id, record.ID())
}

func TestUpdateAndDeleteByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	filter := interfaces.Document{models.IDField: id}
	set := interfaces.Document{"Estado": "confirmado"}

	dbClient := mocks.NewMockDBClient(t)
	dbClient.On("FindOneAndUpdate", ctx, "turnos", filter, set, []string{"Motivo"}).
		Return(interfaces.Document{models.IDField: id, "Estado": "confirmado"}, nil)
	dbClient.On("DeleteOne", ctx, "turnos", filter).Return(int64(1), nil).Once()
	dbClient.On("DeleteOne", ctx, "turnos", filter).Return(int64(0), nil).Once()

	repo, err := NewPostgresRecordRepository(dbClient)
	require.NoError(t, err)

	record, err := repo.UpdateByID(ctx, models.Appointments, id, set, []string{"Motivo"})
	require.NoError(t, err)
	assert.Equal(t, "confirmado", record["Estado"])

	deleted, err := repo.DeleteByID(ctx, models.Appointments, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByID(ctx, models.Appointments, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestFindAllEmpty(t *testing.T) {
	ctx := context.Background()
	dbClient := mocks.NewMockDBClient(t)
	dbClient.On("FindMany", ctx, "pacientes", interfaces.Document{}).Return([]interfaces.Document{}, nil)

	repo, err := NewPostgresRecordRepository(dbClient)
	require.NoError(t, err)

	records, err := repo.FindAll(ctx, models.Patients)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestEnsureIndices(t *testing.T) {
	ctx := context.Background()
	dbClient := mocks.NewMockDBClient(t)
	var stmts []string
	dbClient.On("EnsureSchema", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stmts = append(stmts, args.String(2)) }).
		Return(nil)

	repo, err := NewPostgresRecordRepository(dbClient)
	require.NoError(t, err)
	require.NoError(t, repo.EnsureIndices(ctx))

	assert.Contains(t, stmts, "CREATE UNIQUE INDEX IF NOT EXISTS medicos_Matricula_unique ON medicos ((document->>'Matricula'))")
	assert.Contains(t, stmts, "CREATE INDEX IF NOT EXISTS turnos_Estado_idx ON turnos ((document->>'Estado'))")
}

func TestEnsureIndicesError(t *testing.T) {
	ctx := context.Background()
	dbClient := mocks.NewMockDBClient(t)
	dbClient.On("EnsureSchema", ctx, "pacientes", mock.Anything).Return(errors.New("permission denied")).Once()

	repo, err := NewPostgresRecordRepository(dbClient)
	require.NoError(t, err)
	assert.Error(t, repo.EnsureIndices(ctx))
}

func TestSchemaStatements(t *testing.T) {
	descriptor, err := models.Lookup(models.Patients)
	require.NoError(t, err)

	stmts := schemaStatements(descriptor)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS pacientes")
	assert.Equal(t, "CREATE UNIQUE INDEX IF NOT EXISTS pacientes_DNI_unique ON pacientes ((document->>'DNI'))", stmts[1])
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS pacientes_ObraSocial_idx ON pacientes ((document->>'ObraSocial'))", stmts[2])
}
