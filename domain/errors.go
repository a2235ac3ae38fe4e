package domain

import "errors"

// ValidationError is a failure caused by the client's input. Its message is
// safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError returns a ValidationError carrying msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

const (
	MsgRequiredFields     = "All required fields must be filled."
	MsgInvalidEmail       = "Invalid email address."
	MsgInvalidAge         = "Age must be between 18 and 100."
	MsgVideoRequired      = "Video file is required."
	MsgNoVideoSelected    = "No video file selected."
	MsgInvalidVideoFormat = "Invalid video file format."
	MsgFileTooLarge       = "File size exceeds maximum allowed size."
	MsgDatabaseConnection = "Database connection failed."

	MsgSubmitted  = "Application submitted successfully!"
	MsgUnexpected = "An unexpected error occurred. Please try again."
)

var (
	ErrRequiredFields     = NewValidationError(MsgRequiredFields)
	ErrInvalidEmail       = NewValidationError(MsgInvalidEmail)
	ErrInvalidAge         = NewValidationError(MsgInvalidAge)
	ErrVideoRequired      = NewValidationError(MsgVideoRequired)
	ErrNoVideoSelected    = NewValidationError(MsgNoVideoSelected)
	ErrInvalidVideoFormat = NewValidationError(MsgInvalidVideoFormat)
	ErrFileTooLarge       = NewValidationError(MsgFileTooLarge)
	ErrDatabaseConnection = NewValidationError(MsgDatabaseConnection)
)
