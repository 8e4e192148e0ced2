package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a protocol error
type ErrorType int

const (
	// ErrTypeMalformedPayload indicates an inbound frame that could not be decoded
	// or that violates the event schema. These are dropped, never surfaced.
	ErrTypeMalformedPayload ErrorType = iota
	// ErrTypeInvalidInput indicates a client-side validation failure on a request field
	ErrTypeInvalidInput
	// ErrTypeDeviceReportedFailure indicates a set_* reply carrying status=false
	ErrTypeDeviceReportedFailure
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeMalformedPayload:
		return "Malformed Payload"
	case ErrTypeInvalidInput:
		return "Invalid Input"
	case ErrTypeDeviceReportedFailure:
		return "Device Reported Failure"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the error type returned by this package
type Error struct {
	Type    ErrorType // Category of error
	Event   string    // Event tag involved, if known
	Field   Field     // Offending request field (InvalidInput only)
	Message string    // Human-readable message
	Err     error     // Underlying error, if any
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	if e.Event != "" {
		b.WriteString(" (")
		b.WriteString(e.Event)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// NewMalformedPayloadError creates a decoding error for an inbound frame
func NewMalformedPayloadError(event, message string, err error) *Error {
	return &Error{
		Type:    ErrTypeMalformedPayload,
		Event:   event,
		Message: message,
		Err:     err,
	}
}

// NewInvalidInputError creates a validation error for a single request field
func NewInvalidInputError(field Field, message string) *Error {
	return &Error{
		Type:    ErrTypeInvalidInput,
		Field:   field,
		Message: message,
	}
}

// NewDeviceReportedFailureError creates an error for a set_* reply with status=false
func NewDeviceReportedFailureError(event string) *Error {
	return &Error{
		Type:    ErrTypeDeviceReportedFailure,
		Event:   event,
		Message: "device reported failure",
	}
}

func isType(err error, t ErrorType) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	var ve ValidationErrors
	if t == ErrTypeInvalidInput && errors.As(err, &ve) {
		return len(ve) > 0
	}
	return false
}

// IsMalformedPayload checks if an error is a MalformedPayload error
func IsMalformedPayload(err error) bool {
	return isType(err, ErrTypeMalformedPayload)
}

// IsInvalidInput checks if an error is an InvalidInput error (single or aggregated)
func IsInvalidInput(err error) bool {
	return isType(err, ErrTypeInvalidInput)
}

// IsDeviceReportedFailure checks if an error is a DeviceReportedFailure error
func IsDeviceReportedFailure(err error) bool {
	return isType(err, ErrTypeDeviceReportedFailure)
}

// ValidationErrors aggregates the InvalidInput errors found while building a request.
// A request is only constructed when this is empty.
type ValidationErrors []*Error

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("request validation failed with %d error(s):", len(ve)))
	for _, err := range ve {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Fields returns the invalid fields in the order they were checked
func (ve ValidationErrors) Fields() []Field {
	fields := make([]Field, 0, len(ve))
	for _, err := range ve {
		fields = append(fields, err.Field)
	}
	return fields
}

// InvalidFields extracts the flagged fields from err, or nil if err carries none
func InvalidFields(err error) []Field {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Fields()
	}
	var pe *Error
	if errors.As(err, &pe) && pe.Type == ErrTypeInvalidInput {
		return []Field{pe.Field}
	}
	return nil
}
