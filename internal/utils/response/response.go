// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Success responses carry a human-readable message and the payload:
//
//	{ "message": "Student retrieved successfully", "data": { ... } }
//
// Error responses always carry a summary and details:
//
//	{ "error": "Student not found", "details": "Student with roll number 7 does not exist" }
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/records"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Response is the envelope for a single-record success.
type Response struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ListResponse is the envelope for the list endpoint.
type ListResponse struct {
	Message string          `json:"message"`
	Count   int             `json:"count"`
	Data    []types.Student `json:"data"`
}

// DeletedResponse is the envelope for a successful delete.
type DeletedResponse struct {
	Message string `json:"message"`
	RollNo  int64  `json:"roll_no"`
}

// ErrorResponse is the envelope for every failure. Details is either a
// string or a map of field name to messages.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

// WriteJSON writes data as JSON with the given HTTP status code.
//
// Header() → WriteHeader() → body writes, in that order: headers are locked
// once WriteHeader is called.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func Success(message string, data any) Response {
	return Response{Message: message, Data: data}
}

func List(message string, students []types.Student) ListResponse {
	if students == nil {
		students = []types.Student{}
	}
	return ListResponse{Message: message, Count: len(students), Data: students}
}

func Deleted(message string, rollNo int64) DeletedResponse {
	return DeletedResponse{Message: message, RollNo: rollNo}
}

// GeneralError converts err into its status code and envelope. Anything
// that is not a *records.Error is reported as an internal error; its text
// is never sent to the client.
func GeneralError(err error) (int, ErrorResponse) {
	var e *records.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:   records.SummaryInternal,
			Details: records.DetailInternal,
		}
	}
	return e.Kind.HTTPStatus(), ErrorResponse{Error: e.Summary, Details: e.Details}
}

// WriteError writes the envelope for err.
func WriteError(w http.ResponseWriter, err error) error {
	status, body := GeneralError(err)
	return WriteJSON(w, status, body)
}
