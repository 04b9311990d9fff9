package recordrepo

const (
	// Error messages shared by the record repositories
	ErrDBClientNil         = "dbClient cannot be nil"
	ErrFailedToInsert      = "failed to insert record"
	ErrFailedToFind        = "failed to find records"
	ErrFailedToUpdate      = "failed to update record"
	ErrFailedToDelete      = "failed to delete record"
	ErrFailedToCount       = "failed to count records"
	ErrFailedToEnsureIndex = "failed to ensure index"
	ErrUnexpectedIDType    = "unexpected identity type"
)
