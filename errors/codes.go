package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Invocation errors
const (
	// ErrCodeBinding indicates a run referenced an input name without a bound source.
	ErrCodeBinding ErrorCode = "BINDING_ERROR"
)

// Row errors, raised lazily while rows are pulled.
const (
	// ErrCodeMissingField indicates a row lacks a field a stage requires.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeTypeMismatch indicates values of one field cannot be compared or combined.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeGroupingViolation indicates an input was not grouped or ordered by the declared key.
	ErrCodeGroupingViolation ErrorCode = "GROUPING_VIOLATION"
)

// Construction errors
const (
	// ErrCodeInvalidConfig indicates a stage or graph was configured inconsistently.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnknownOperation indicates a plan referenced an unregistered operation.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"
)

// I/O errors
const (
	// ErrCodeInvalidFormat indicates an encoded row could not be decoded.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)
