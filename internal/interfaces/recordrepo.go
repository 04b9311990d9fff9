package interfaces

import (
	"context"

	"github.com/haguru/clinica/internal/models"
)

// RecordRepository stores and retrieves records for every registered collection.
// Implementations own the translation between the string identity used by callers
// and the identity type of their backend.
type RecordRepository interface {
	Insert(ctx context.Context, collection models.Collection, fields Document) (models.Record, error)
	FindAll(ctx context.Context, collection models.Collection) ([]models.Record, error)
	FindByID(ctx context.Context, collection models.Collection, id string) (models.Record, error)
	FindByField(ctx context.Context, collection models.Collection, field string, value interface{}) ([]models.Record, error)
	UpdateByID(ctx context.Context, collection models.Collection, id string, set Document, unset []string) (models.Record, error)
	DeleteByID(ctx context.Context, collection models.Collection, id string) (bool, error)
	Count(ctx context.Context, collection models.Collection) (int64, error)
	EnsureIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
