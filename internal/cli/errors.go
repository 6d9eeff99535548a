package cli

import "errors"

// Error codes for structured error responses.
// These codes are stable and can be relied upon by scripts.
const (
	// Setup errors
	ErrConfigInvalid  = "CONFIG_INVALID"
	ErrSchemaInvalid  = "SCHEMA_INVALID"
	ErrRootNotFound   = "ROOT_NOT_FOUND"
	ErrFileExists     = "FILE_EXISTS"
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"

	// Lookup errors
	ErrTypeNotFound      = "TYPE_NOT_FOUND"
	ErrValidatorNotFound = "VALIDATOR_NOT_FOUND"
	ErrRefNotFound       = "REF_NOT_FOUND"
	ErrRefAmbiguous      = "REF_AMBIGUOUS"
	ErrRunNotFound       = "RUN_NOT_FOUND"

	// Run errors
	ErrDatabaseError = "DATABASE_ERROR"

	// Input errors
	ErrInvalidInput = "INVALID_INPUT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)

// errValidationFailed signals a completed run with failing validators. The
// report has already been printed, so Execute prints nothing more.
var errValidationFailed = errors.New("validation failed")

// silentError carries an error that was already reported (as a JSON
// envelope) and only needs to set the exit status.
type silentError struct {
	err error
}

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

func isSilent(err error) bool {
	var s *silentError
	return errors.Is(err, errValidationFailed) || errors.As(err, &s)
}
