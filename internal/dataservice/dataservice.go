package dataservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/haguru/clinica/internal/interfaces"
	"github.com/haguru/clinica/internal/metrics"
	"github.com/haguru/clinica/internal/models"
	"github.com/haguru/clinica/pkg/helper"

	"github.com/go-playground/validator/v10"
)

const (
	opGetAll     = "get_all"
	opGetByID    = "get_by_id"
	opCreate     = "create"
	opUpdate     = "update"
	opDelete     = "delete"
	opGetByField = "get_by_field"
	opGetByDNI   = "get_by_dni"
	opCount      = "count"
)

// DataService is the generic data access layer. Every operation is keyed by
// a registered collection; records are validated against the collection
// schema before they reach the repository.
type DataService struct {
	Repo      interfaces.RecordRepository
	Validator *validator.Validate
	Logger    interfaces.Logger
	Metrics   interfaces.Metrics
}

// NewDataService creates a new DataService instance. metrics may be nil.
func NewDataService(repo interfaces.RecordRepository, validate *validator.Validate, logger interfaces.Logger, m interfaces.Metrics) *DataService {
	if validate == nil {
		validate = validator.New()
	}
	return &DataService{
		Repo:      repo,
		Validator: validate,
		Logger:    logger,
		Metrics:   m,
	}
}

// GetAll returns every record of the collection in insertion order. An
// unknown collection yields an empty slice.
func (s *DataService) GetAll(ctx context.Context, collection models.Collection) (records []models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection)
	defer s.track(collection, opGetAll, time.Now(), &err)

	if _, err := models.Lookup(collection); err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return []models.Record{}, nil
	}

	records, err = s.Repo.FindAll(ctx, collection)
	if err != nil {
		s.Logger.Error(ErrRetrievingRecords, "func", funcName, "table", collection, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingRecords, err)
	}
	return records, nil
}

// GetByID returns ErrNotFound for unknown collections, malformed identities
// and missing records alike.
func (s *DataService) GetByID(ctx context.Context, collection models.Collection, id string) (record models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection, "id", id)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection, "id", id)
	defer s.track(collection, opGetByID, time.Now(), &err)

	if _, err := models.Lookup(collection); err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return nil, ErrNotFound
	}

	record, err = s.Repo.FindByID(ctx, collection, id)
	if err != nil {
		if isMissing(err) {
			s.Logger.Warn(ErrRetrievingRecord, "func", funcName, "table", collection, "id", id, "error", err)
			return nil, ErrNotFound
		}
		s.Logger.Error(ErrRetrievingRecord, "func", funcName, "table", collection, "id", id, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingRecord, err)
	}
	return record, nil
}

// Create validates the fields, applies the collection defaults and stores the
// record. Identity keys in fields are ignored.
func (s *DataService) Create(ctx context.Context, collection models.Collection, fields map[string]interface{}) (record models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection)
	defer s.track(collection, opCreate, time.Now(), &err)

	descriptor, err := models.Lookup(collection)
	if err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return nil, err
	}

	candidate := withoutIdentity(fields)
	for k, v := range descriptor.Defaults {
		if _, ok := candidate[k]; !ok {
			candidate[k] = v
		}
	}

	document, err := s.validate(descriptor, candidate)
	if err != nil {
		s.Logger.Warn(ErrInvalidRecord, "func", funcName, "table", collection, "error", err)
		return nil, err
	}

	record, err = s.Repo.Insert(ctx, collection, document)
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			dupErr := s.duplicateField(ctx, descriptor, "", document)
			s.Logger.Warn(ErrCreatingRecord, "func", funcName, "table", collection, "field", dupErr.Field, "error", err)
			return nil, dupErr
		}
		s.Logger.Error(ErrCreatingRecord, "func", funcName, "table", collection, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrCreatingRecord, err)
	}

	s.Logger.Info("Record created", "func", funcName, "table", collection, "id", record.ID())
	return record, nil
}

// Update applies patch to the stored record. The merged record must pass
// validation; only the keys named in patch are written, the identity never
// changes.
func (s *DataService) Update(ctx context.Context, collection models.Collection, id string, patch map[string]interface{}) (record models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection, "id", id)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection, "id", id)
	defer s.track(collection, opUpdate, time.Now(), &err)

	descriptor, err := models.Lookup(collection)
	if err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return nil, ErrNotFound
	}

	current, err := s.Repo.FindByID(ctx, collection, id)
	if err != nil {
		if isMissing(err) {
			s.Logger.Warn(ErrUpdatingRecord, "func", funcName, "table", collection, "id", id, "error", err)
			return nil, ErrNotFound
		}
		s.Logger.Error(ErrUpdatingRecord, "func", funcName, "table", collection, "id", id, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrUpdatingRecord, err)
	}

	changed := []string{}
	merged := map[string]interface{}{}
	for _, field := range descriptor.Fields {
		if v, ok := current[field]; ok {
			merged[field] = v
		}
		if v, ok := patch[field]; ok {
			merged[field] = v
			changed = append(changed, field)
		}
	}
	if len(changed) == 0 {
		return current, nil
	}

	document, err := s.validate(descriptor, merged)
	if err != nil {
		s.Logger.Warn(ErrInvalidRecord, "func", funcName, "table", collection, "id", id, "error", err)
		return nil, err
	}

	set := interfaces.Document{}
	unset := []string{}
	for _, field := range changed {
		if v, ok := document[field]; ok {
			set[field] = v
		} else {
			unset = append(unset, field)
		}
	}

	record, err = s.Repo.UpdateByID(ctx, collection, id, set, unset)
	if err != nil {
		switch {
		case isMissing(err):
			s.Logger.Warn(ErrUpdatingRecord, "func", funcName, "table", collection, "id", id, "error", err)
			return nil, ErrNotFound
		case errors.Is(err, interfaces.ErrDuplicateKey):
			dupErr := s.duplicateField(ctx, descriptor, id, set)
			s.Logger.Warn(ErrUpdatingRecord, "func", funcName, "table", collection, "id", id, "field", dupErr.Field, "error", err)
			return nil, dupErr
		}
		s.Logger.Error(ErrUpdatingRecord, "func", funcName, "table", collection, "id", id, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrUpdatingRecord, err)
	}

	s.Logger.Info("Record updated", "func", funcName, "table", collection, "id", id, "fields", strings.Join(changed, ","))
	return record, nil
}

// Delete reports whether a record was removed. Unknown collections,
// malformed identities and missing records all report false without error.
func (s *DataService) Delete(ctx context.Context, collection models.Collection, id string) (deleted bool, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection, "id", id)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection, "id", id)
	defer s.track(collection, opDelete, time.Now(), &err)

	if _, err := models.Lookup(collection); err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return false, nil
	}

	deleted, err = s.Repo.DeleteByID(ctx, collection, id)
	if err != nil {
		if isMissing(err) {
			s.Logger.Warn(ErrDeletingRecord, "func", funcName, "table", collection, "id", id, "error", err)
			return false, nil
		}
		s.Logger.Error(ErrDeletingRecord, "func", funcName, "table", collection, "id", id, "error", err)
		return false, fmt.Errorf("%s: %w", ErrDeletingRecord, err)
	}

	if deleted {
		s.Logger.Info("Record deleted", "func", funcName, "table", collection, "id", id)
	}
	return deleted, nil
}

// GetByField returns the records whose field equals value. Fields outside
// the schema match nothing.
func (s *DataService) GetByField(ctx context.Context, collection models.Collection, field string, value interface{}) (records []models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection, "field", field)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection, "field", field)
	defer s.track(collection, opGetByField, time.Now(), &err)

	descriptor, err := models.Lookup(collection)
	if err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return []models.Record{}, nil
	}
	if !descriptor.HasField(field) {
		s.Logger.Warn(ErrUnknownField, "func", funcName, "table", collection, "field", field)
		return []models.Record{}, nil
	}

	records, err = s.Repo.FindByField(ctx, collection, field, value)
	if err != nil {
		s.Logger.Error(ErrRetrievingRecords, "func", funcName, "table", collection, "field", field, "value", value, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingRecords, err)
	}
	return records, nil
}

// GetByDNI returns the record holding the identity number. Collections
// without a DNI field report ErrNotFound.
func (s *DataService) GetByDNI(ctx context.Context, collection models.Collection, dni string) (record models.Record, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection, "dni", dni)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection, "dni", dni)
	defer s.track(collection, opGetByDNI, time.Now(), &err)

	descriptor, err := models.Lookup(collection)
	if err != nil || !descriptor.HasDNI {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return nil, ErrNotFound
	}

	records, err := s.Repo.FindByField(ctx, collection, models.DNIField, dni)
	if err != nil {
		s.Logger.Error(ErrRetrievingRecord, "func", funcName, "table", collection, "dni", dni, "error", err)
		return nil, fmt.Errorf("%s: %w", ErrRetrievingRecord, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

// Count returns the number of records in the collection, 0 for unknown collections.
func (s *DataService) Count(ctx context.Context, collection models.Collection) (count int64, err error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "table", collection)
	defer s.Logger.Debug("Exiting function", "func", funcName, "table", collection)
	defer s.track(collection, opCount, time.Now(), &err)

	if _, err := models.Lookup(collection); err != nil {
		s.Logger.Error("Model not found", "func", funcName, "table", collection)
		return 0, nil
	}

	count, err = s.Repo.Count(ctx, collection)
	if err != nil {
		s.Logger.Error(ErrCountingRecords, "func", funcName, "table", collection, "error", err)
		return 0, fmt.Errorf("%s: %w", ErrCountingRecords, err)
	}
	if s.Metrics != nil {
		s.Metrics.SetGaugeVec(metrics.RecordsTotal, float64(count), collection.String())
	}
	return count, nil
}

// validate runs fields through the schema struct of the descriptor and
// returns the normalized document. Empty optional fields are dropped.
func (s *DataService) validate(descriptor models.Descriptor, fields map[string]interface{}) (interfaces.Document, error) {
	model, err := descriptor.Decode(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.Validator.Struct(model); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			problems := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				problems = append(problems, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, "; "))
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	document, err := models.Encode(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return document, nil
}

// duplicateField finds which unique field of document collides with a
// record other than self. The field is left empty when none can be named.
func (s *DataService) duplicateField(ctx context.Context, descriptor models.Descriptor, self string, document interfaces.Document) *DuplicateError {
	for _, field := range descriptor.UniqueFields {
		value, ok := document[field]
		if !ok {
			continue
		}
		matches, err := s.Repo.FindByField(ctx, descriptor.Collection, field, value)
		if err != nil {
			s.Logger.Warn("Failed to resolve duplicate field", "table", descriptor.Collection, "field", field, "error", err)
			continue
		}
		for _, match := range matches {
			if match.ID() != self {
				if s.Metrics != nil {
					s.Metrics.IncCounterVec(metrics.DuplicateRejectedTotal, descriptor.Collection.String(), field)
				}
				return &DuplicateError{Field: field}
			}
		}
	}
	return &DuplicateError{}
}

func (s *DataService) track(collection models.Collection, op string, start time.Time, err *error) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.IncCounterVec(metrics.DataOperationsTotal, collection.String(), op)
	s.Metrics.ObserveHistogramVec(metrics.DataOperationDuration, time.Since(start).Seconds(), collection.String(), op)
	if err != nil && *err != nil {
		s.Metrics.IncCounterVec(metrics.DataOperationErrors, collection.String(), op)
	}
}

func isMissing(err error) bool {
	return errors.Is(err, interfaces.ErrNoDocuments) || errors.Is(err, interfaces.ErrInvalidID)
}

func withoutIdentity(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == models.IDField || k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}
