// Package student contains all HTTP handlers related to the Student resource.
//
// Handlers are built with the factory pattern: each exported function takes
// its dependencies once at startup and returns the http.HandlerFunc the
// router calls on every request.
//
//	router.HandleFunc("POST /students/{$}", student.New(gateway, log))
package student

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records-api/internal/records"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
	"github.com/aanand-mishra/student-records-api/internal/validation"
)

// Success messages.
const (
	MsgCreated   = "Student created successfully"
	MsgListed    = "Students retrieved successfully"
	MsgRetrieved = "Student retrieved successfully"
	MsgUpdated   = "Student updated successfully"
	MsgDeleted   = "Student deleted successfully"
)

// PathRollNo is the path wildcard holding the roll number.
const PathRollNo = "roll_no"

// Gateway is the set of record operations the handlers need.
// *records.Gateway satisfies it.
type Gateway interface {
	Create(ctx context.Context, student types.Student) (types.Student, error)
	List(ctx context.Context) ([]types.Student, error)
	Get(ctx context.Context, rawRollNo string) (types.Student, error)
	Update(ctx context.Context, rawRollNo string, fields map[string]any, partial bool) (types.Student, error)
	Delete(ctx context.Context, rawRollNo string) (int64, error)
}

// New handles POST /students/
//
// Request body (JSON), all fields required:
//
//	{ "name": "Alice", "roll_no": 101, "course": "CS", "marks": 85, "email": "alice@x.com" }
//
// Success response (201 Created):
//
//	{ "message": "Student created successfully", "data": { "id": "...", ... } }
func New(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("creating a student")

		fields, err := decodeBody(r, records.SummaryCreateFailed)
		if err != nil {
			writeError(w, log, err)
			return
		}

		in, err := validation.Validate(fields, false)
		if err != nil {
			writeError(w, log, records.NewValidationError(records.SummaryCreateFailed, err))
			return
		}

		created, err := gateway.Create(r.Context(), in.Student())
		if err != nil {
			writeError(w, log, err)
			return
		}

		log.Info("student created",
			slog.Int64("roll_no", created.RollNo),
			slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, response.Success(MsgCreated, created))
	}
}

// GetList handles GET /students/
//
// Returns an empty array (not null) in data when there are no students.
func GetList(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("getting all students")

		students, err := gateway.List(r.Context())
		if err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.List(MsgListed, students))
	}
}

// GetByID handles GET /students/{roll_no}/
func GetByID(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rollNo := r.PathValue(PathRollNo)
		log.Info("getting a student", slog.String("roll_no", rollNo))

		student, err := gateway.Get(r.Context(), rollNo)
		if err != nil {
			writeError(w, log, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.Success(MsgRetrieved, student))
	}
}

// Update handles PUT /students/{roll_no}/ and replaces every field.
func Update(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return update(gateway, log, false)
}

// PartialUpdate handles PATCH /students/{roll_no}/ and changes only the
// fields present in the body.
func PartialUpdate(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return update(gateway, log, true)
}

func update(gateway Gateway, log *slog.Logger, partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rollNo := r.PathValue(PathRollNo)
		log.Info("updating a student",
			slog.String("roll_no", rollNo),
			slog.Bool("partial", partial))

		fields, err := decodeBody(r, records.SummaryUpdateFailed)
		if err != nil {
			// A bad roll number or a missing record is reported before the body.
			if _, lookupErr := gateway.Get(r.Context(), rollNo); lookupErr != nil {
				err = lookupErr
			}
			writeError(w, log, err)
			return
		}

		updated, err := gateway.Update(r.Context(), rollNo, fields, partial)
		if err != nil {
			writeError(w, log, err)
			return
		}

		log.Info("student updated", slog.String("roll_no", rollNo))
		response.WriteJSON(w, http.StatusOK, response.Success(MsgUpdated, updated))
	}
}

// Delete handles DELETE /students/{roll_no}/
//
// Success response (200 OK):
//
//	{ "message": "Student deleted successfully", "roll_no": 101 }
func Delete(gateway Gateway, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rollNo := r.PathValue(PathRollNo)
		log.Info("deleting a student", slog.String("roll_no", rollNo))

		deleted, err := gateway.Delete(r.Context(), rollNo)
		if err != nil {
			writeError(w, log, err)
			return
		}

		log.Info("student deleted", slog.Int64("roll_no", deleted))
		response.WriteJSON(w, http.StatusOK, response.Deleted(MsgDeleted, deleted))
	}
}

var errTrailingData = errors.New("unexpected data after top-level value")

// decodeBody reads the request body as a JSON object. An empty body is an
// empty object. Numbers are kept as json.Number so the validator sees the
// literal the client sent.
func decodeBody(r *http.Request, summary string) (map[string]any, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, records.NewMalformedBodyError(summary, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, records.NewMalformedBodyError(summary, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, records.NewMalformedBodyError(summary, errTrailingData)
	}

	fields, ok := body.(map[string]any)
	if !ok {
		var verrs validation.Errors
		verrs.Add(validation.FieldNonField, validation.MsgNotObject)
		return nil, records.NewValidationError(summary, &verrs)
	}
	return fields, nil
}

// writeError logs err at a level matching its kind and writes the envelope.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	if records.KindOf(err) == records.KindInternal {
		log.Error("request failed", slog.String("error", err.Error()))
	} else {
		log.Debug("request rejected",
			slog.String("kind", records.KindOf(err).String()),
			slog.String("error", err.Error()))
	}
	response.WriteError(w, err)
}
