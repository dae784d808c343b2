package history

import "codeberg.org/mutker/gpufreq/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("history_invalid_db_path")

	ErrSchemaInitFailed       = errors.ErrorCode("history_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("history_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("history_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("history_transaction_failed")
	ErrEncodeFailed           = errors.ErrorCode("history_encode_failed")
	ErrQueryFailed            = errors.ErrorCode("history_query_failed")

	ErrStorageInit  = errors.ErrInitHistory
	ErrStorageClose = errors.ErrCloseHistory
	ErrRecord       = errors.ErrRecordHistory
	ErrInvalidState = errors.ErrorCode("history_invalid_state")

	ErrOperationCanceled = errors.ErrCanceled
)
