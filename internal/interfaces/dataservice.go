package interfaces

import (
	"context"

	"github.com/haguru/clinica/internal/models"
)

// DataService is the generic CRUD contract the HTTP layer is written against.
type DataService interface {
	GetAll(ctx context.Context, collection models.Collection) ([]models.Record, error)
	GetByID(ctx context.Context, collection models.Collection, id string) (models.Record, error)
	Create(ctx context.Context, collection models.Collection, fields map[string]interface{}) (models.Record, error)
	Update(ctx context.Context, collection models.Collection, id string, patch map[string]interface{}) (models.Record, error)
	Delete(ctx context.Context, collection models.Collection, id string) (bool, error)
	GetByField(ctx context.Context, collection models.Collection, field string, value interface{}) ([]models.Record, error)
	GetByDNI(ctx context.Context, collection models.Collection, dni string) (models.Record, error)
	Count(ctx context.Context, collection models.Collection) (int64, error)
}
