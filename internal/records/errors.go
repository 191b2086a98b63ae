package records

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/validation"
)

// Kind classifies a gateway failure. Each kind maps to exactly one HTTP
// status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "internal"
	}
}

// HTTPStatus is the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error summaries shown to clients in the "error" field.
const (
	SummaryCreateFailed  = "Failed to create student"
	SummaryUpdateFailed  = "Failed to update student"
	SummaryNotFound      = "Student not found"
	SummaryInvalidRollNo = "Invalid roll number"
	SummaryInternal      = "Internal server error"
)

// Error details shown to clients in the "details" field.
const (
	DetailRollNoExists    = "Student with this roll number already exists"
	DetailEmailExists     = "Student with this email already exists"
	DetailDuplicate       = "Student with this roll number or email already exists"
	DetailRollNoNotInt    = "Roll number must be an integer"
	DetailInternal        = "An unexpected error occurred"
	detailNotFoundPattern = "Student with roll number %s does not exist"
)

// Error is the single error type returned by Gateway. Summary and Details
// are safe to show to clients; Err carries the cause for logs.
type Error struct {
	Kind    Kind
	Summary string
	// Details is either a string or a map of field name to messages.
	Details any
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Summary)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of err, or KindInternal for any error that is not
// an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// NewValidationError wraps a validation failure. A *validation.Errors is
// reported field by field; any other error is reported as its message.
func NewValidationError(summary string, err error) *Error {
	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Summary: summary, Details: verrs.Fields, Err: err}
	}
	return &Error{Kind: KindValidation, Summary: summary, Details: err.Error(), Err: err}
}

// NewMalformedBodyError reports a request body that is not valid JSON.
func NewMalformedBodyError(summary string, err error) *Error {
	return &Error{
		Kind:    KindValidation,
		Summary: summary,
		Details: "Malformed request body: " + err.Error(),
		Err:     err,
	}
}

// NewInternalError hides err from clients and keeps it for logs.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Summary: SummaryInternal,
		Details: DetailInternal,
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

func conflict(summary, detail string, err error) *Error {
	return &Error{Kind: KindConflict, Summary: summary, Details: detail, Err: err}
}

func notFound(rawRollNo string, err error) *Error {
	return &Error{
		Kind:    KindNotFound,
		Summary: SummaryNotFound,
		Details: fmt.Sprintf(detailNotFoundPattern, rawRollNo),
		Err:     err,
	}
}

func invalidRollNo(err error) *Error {
	return &Error{Kind: KindInvalidInput, Summary: SummaryInvalidRollNo, Details: DetailRollNoNotInt, Err: err}
}
