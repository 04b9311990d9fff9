package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/internal/recordrepo"

	"github.com/google/uuid"
)

// MemoryRecordRepository keeps every collection in process memory. It honours
// the unique fields of the registry and keeps records in insertion order.
type MemoryRecordRepository struct {
	mu    sync.RWMutex
	order map[models.Collection][]string
	data  map[models.Collection]map[string]models.Record
}

// NewMemoryRecordRepository creates an empty repository with one bucket per registered collection.
func NewMemoryRecordRepository() interfaces.RecordRepository {
	r := &MemoryRecordRepository{
		order: map[models.Collection][]string{},
		data:  map[models.Collection]map[string]models.Record{},
	}
	for _, c := range models.Collections() {
		r.data[c] = map[string]models.Record{}
	}
	return r
}

func (r *MemoryRecordRepository) Insert(ctx context.Context, collection models.Collection, fields interfaces.Document) (models.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToInsert, err)
	}

	record := models.Record{}
	for k, v := range fields {
		if k != models.IDField {
			record[k] = v
		}
	}
	if err := r.checkUnique(collection, bucket, "", record); err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToInsert, err)
	}

	id := uuid.NewString()
	record[models.IDField] = id
	bucket[id] = record
	r.order[collection] = append(r.order[collection], id)
	return record.Clone(), nil
}

func (r *MemoryRecordRepository) FindAll(ctx context.Context, collection models.Collection) ([]models.Record, error) {
	return r.filter(collection, func(models.Record) bool { return true })
}

func (r *MemoryRecordRepository) FindByID(ctx context.Context, collection models.Collection, id string) (models.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	record, ok := bucket[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, interfaces.ErrNoDocuments)
	}
	return record.Clone(), nil
}

func (r *MemoryRecordRepository) FindByField(ctx context.Context, collection models.Collection, field string, value interface{}) ([]models.Record, error) {
	return r.filter(collection, func(record models.Record) bool {
		stored, ok := record[field]
		return ok && reflect.DeepEqual(stored, value)
	})
}

func (r *MemoryRecordRepository) UpdateByID(ctx context.Context, collection models.Collection, id string, set interfaces.Document, unset []string) (models.Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToUpdate, err)
	}
	current, ok := bucket[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToUpdate, interfaces.ErrNoDocuments)
	}

	updated := current.Clone()
	for k, v := range set {
		if k != models.IDField {
			updated[k] = v
		}
	}
	for _, k := range unset {
		if k != models.IDField {
			delete(updated, k)
		}
	}
	if err := r.checkUnique(collection, bucket, id, updated); err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToUpdate, err)
	}

	bucket[id] = updated
	return updated.Clone(), nil
}

func (r *MemoryRecordRepository) DeleteByID(ctx context.Context, collection models.Collection, id string) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return false, fmt.Errorf("%s: %w", recordrepo.ErrFailedToDelete, err)
	}
	if _, ok := bucket[id]; !ok {
		return false, nil
	}
	delete(bucket, id)

	order := r.order[collection]
	for i, existing := range order {
		if existing == id {
			r.order[collection] = append(order[:i:i], order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (r *MemoryRecordRepository) Count(ctx context.Context, collection models.Collection) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", recordrepo.ErrFailedToCount, err)
	}
	return int64(len(bucket)), nil
}

// EnsureIndices is a no-op; uniqueness is checked on every write.
func (r *MemoryRecordRepository) EnsureIndices(ctx context.Context) error {
	return nil
}

func (r *MemoryRecordRepository) Close(ctx context.Context) error {
	return nil
}

func (r *MemoryRecordRepository) bucket(collection models.Collection) (map[string]models.Record, error) {
	bucket, ok := r.data[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownCollection, collection)
	}
	return bucket, nil
}

func (r *MemoryRecordRepository) filter(collection models.Collection, match func(models.Record) bool) ([]models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, err := r.bucket(collection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordrepo.ErrFailedToFind, err)
	}
	records := []models.Record{}
	for _, id := range r.order[collection] {
		if record := bucket[id]; match(record) {
			records = append(records, record.Clone())
		}
	}
	return records, nil
}

// checkUnique must be called with the write lock held. self is the identity
// of the record being replaced, empty on insert.
func (r *MemoryRecordRepository) checkUnique(collection models.Collection, bucket map[string]models.Record, self string, record models.Record) error {
	descriptor, err := models.Lookup(collection)
	if err != nil {
		return err
	}
	for _, field := range descriptor.UniqueFields {
		value, ok := record[field]
		if !ok {
			continue
		}
		for id, other := range bucket {
			if id == self {
				continue
			}
			if existing, ok := other[field]; ok && reflect.DeepEqual(existing, value) {
				return fmt.Errorf("%w: %s", interfaces.ErrDuplicateKey, field)
			}
		}
	}
	return nil
}

func checkID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("%w: %q: %v", interfaces.ErrInvalidID, id, err)
	}
	return nil
}
