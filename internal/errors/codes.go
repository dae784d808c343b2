package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidTarget   ErrorCode = "invalid_target"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Command execution errors
	ErrTimeout     ErrorCode = "operation_timeout"
	ErrSpawn       ErrorCode = "spawn_failed"
	ErrNonZeroExit ErrorCode = "command_failed"
	ErrCanceled    ErrorCode = "operation_canceled"
	ErrConnect     ErrorCode = "connect_failed"

	// Discovery errors
	ErrPrivilegeUnavailable ErrorCode = "privilege_unavailable"
	ErrResourceNotFound     ErrorCode = "resource_not_found"
	ErrParseSkipped         ErrorCode = "parse_skipped"
	ErrExhausted            ErrorCode = "candidates_exhausted"

	// Storage errors
	ErrInitHistory    ErrorCode = "init_history_failed"
	ErrRecordHistory  ErrorCode = "record_history_failed"
	ErrCloseHistory   ErrorCode = "close_history_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:             "Internal error occurred",
	ErrInvalidArgument:      "Invalid argument provided",
	ErrAlreadyRunning:       "Another instance is already running",
	ErrInvalidConfig:        "Invalid configuration",
	ErrReadConfig:           "Failed to read config file",
	ErrBindFlags:            "Failed to bind flags",
	ErrInvalidInterval:      "Invalid interval value",
	ErrInvalidTarget:        "Invalid target",
	ErrInvalidLogLevel:      "Invalid log level",
	ErrTimeout:              "Operation timed out",
	ErrSpawn:                "Failed to start command",
	ErrNonZeroExit:          "Command exited with non-zero status",
	ErrCanceled:             "Operation canceled",
	ErrConnect:              "Failed to connect",
	ErrPrivilegeUnavailable: "Privileged access unavailable",
	ErrResourceNotFound:     "Resource not found",
	ErrParseSkipped:         "Content is not a frequency",
	ErrExhausted:            "All candidate paths exhausted",
	ErrInitHistory:          "Failed to initialize history",
	ErrRecordHistory:        "Failed to record history",
	ErrCloseHistory:         "Failed to close history",
	ErrShutdownFailed:       "Shutdown failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
