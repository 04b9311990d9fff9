package dataservice

import "errors"

const (
	// Error messages for data service operations
	ErrRetrievingRecords = "error retrieving records"
	ErrRetrievingRecord  = "error retrieving record"
	ErrCreatingRecord    = "error creating record"
	ErrUpdatingRecord    = "error updating record"
	ErrDeletingRecord    = "error deleting record"
	ErrCountingRecords   = "error counting records"
	ErrInvalidRecord     = "invalid record"
	ErrUnknownField      = "field is not part of the collection schema"
)

var (
	// ErrNotFound is returned when the requested record does not exist or its
	// identity is malformed.
	ErrNotFound = errors.New("record not found")
	// ErrValidation is returned when a record breaks the collection schema.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate is matched by every DuplicateError.
	ErrDuplicate = errors.New("duplicate value")
)

// DuplicateError reports the unique field whose value is already taken.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return "a unique value already exists in the database"
	}
	return e.Field + " already exists in the database"
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
