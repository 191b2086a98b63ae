// Package validation turns an untyped request payload into a normalized
// types.StudentInput, or reports one or more messages per invalid field.
//
// It is a pure function of its input: no storage access, no logging.
// Uniqueness is the records gateway's concern, not this package's.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Field names as they appear on the wire.
const (
	FieldName   = "name"
	FieldRollNo = "roll_no"
	FieldCourse = "course"
	FieldMarks  = "marks"
	FieldEmail  = "email"

	// FieldNonField holds errors about the body as a whole.
	FieldNonField = "non_field_errors"
)

// Messages reported to API clients.
const (
	MsgRequired      = "This field is required."
	MsgNull          = "This field may not be null."
	MsgBlank         = "This field may not be blank."
	MsgNotString     = "Not a valid string."
	MsgNotInteger    = "A valid integer is required."
	MsgNameEmpty     = "Name cannot be empty."
	MsgRollNoInvalid = "Roll number must be a positive integer."
	MsgMarksRange    = "Marks must be between 0 and 100."
	MsgEmailInvalid  = "Enter a valid email address."
	MsgNotObject     = "Invalid data. Expected a dictionary."
)

const (
	maxNameLength   = 200
	maxCourseLength = 100
	minMarks        = 0
	maxMarks        = 100
)

// fieldOrder fixes the order fields are checked in, so the first error for a
// payload is stable across runs.
var fieldOrder = []string{FieldName, FieldRollNo, FieldCourse, FieldMarks, FieldEmail}

// validate is safe for concurrent use and caches struct metadata, so one
// instance serves the whole process.
var validate = validator.New()

// trailingZeroDecimal matches "101.0", "101.000" and friends, which are
// accepted as integers.
var trailingZeroDecimal = regexp.MustCompile(`\.0*\s*$`)

// Errors collects the messages for every invalid field.
type Errors struct {
	Fields map[string][]string
}

// Add records a message against a field.
func (e *Errors) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field failed.
func (e *Errors) Empty() bool { return len(e.Fields) == 0 }

// Error implements error with a deterministic, field-sorted message.
func (e *Errors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks fields against the student rules.
//
// With partial=false every field is required. With partial=true only the
// supplied fields are checked and the rest stay nil in the result.
// Keys other than the five business fields are ignored.
//
// On failure the returned error is a *Errors.
func Validate(fields map[string]any, partial bool) (types.StudentInput, error) {
	var (
		in   types.StudentInput
		errs Errors
	)

	for _, field := range fieldOrder {
		raw, ok := fields[field]
		if !ok {
			if !partial {
				errs.Add(field, MsgRequired)
			}
			continue
		}
		if raw == nil {
			errs.Add(field, MsgNull)
			continue
		}

		switch field {
		case FieldName:
			if v, ok := checkString(&errs, field, raw, maxNameLength, MsgNameEmpty); ok {
				in.Name = &v
			}
		case FieldCourse:
			if v, ok := checkString(&errs, field, raw, maxCourseLength, MsgBlank); ok {
				in.Course = &v
			}
		case FieldEmail:
			if v, ok := checkEmail(&errs, raw); ok {
				in.Email = &v
			}
		case FieldRollNo:
			n, err := toInteger(raw)
			if err != nil {
				errs.Add(field, MsgNotInteger)
				continue
			}
			if n <= 0 {
				errs.Add(field, MsgRollNoInvalid)
				continue
			}
			in.RollNo = &n
		case FieldMarks:
			n, err := toInteger(raw)
			if err != nil {
				errs.Add(field, MsgNotInteger)
				continue
			}
			if n < minMarks || n > maxMarks {
				errs.Add(field, MsgMarksRange)
				continue
			}
			marks := int(n)
			in.Marks = &marks
		}
	}

	if !errs.Empty() {
		return types.StudentInput{}, &errs
	}
	return in, nil
}

// checkString normalizes a string field: trims it, rejects blanks with
// blankMsg and enforces maxLen (in characters).
func checkString(errs *Errors, field string, raw any, maxLen int, blankMsg string) (string, bool) {
	s, err := toString(raw)
	if err != nil {
		errs.Add(field, MsgNotString)
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		errs.Add(field, blankMsg)
		return "", false
	}
	if err := validate.Var(s, "max="+strconv.Itoa(maxLen)); err != nil {
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxLen))
		return "", false
	}
	return s, true
}

func checkEmail(errs *Errors, raw any) (string, bool) {
	s, err := toString(raw)
	if err != nil {
		errs.Add(FieldEmail, MsgNotString)
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		errs.Add(FieldEmail, MsgBlank)
		return "", false
	}
	if err := validate.Var(s, "email"); err != nil {
		errs.Add(FieldEmail, MsgEmailInvalid)
		return "", false
	}
	return strings.ToLower(s), true
}

// toString accepts strings and numbers. Booleans, objects and arrays are
// rejected.
func toString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("unsupported type %T", raw)
	}
}

// toInteger accepts whole numbers in any of the shapes a decoded JSON body
// can hold, plus numeric strings such as "101" or "101.0".
func toInteger(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return wholeFloat(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return wholeFloat(f)
	case string:
		return parseInteger(v)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func parseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return strconv.ParseInt(trailingZeroDecimal.ReplaceAllString(s, ""), 10, 64)
}

func wholeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is out of range", f)
	}
	return int64(f), nil
}
