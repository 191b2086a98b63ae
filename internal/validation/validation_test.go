package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() map[string]any {
	return map[string]any{
		"name":    "Alice",
		"roll_no": json.Number("101"),
		"course":  "CS",
		"marks":   json.Number("85"),
		"email":   "Alice@X.com",
	}
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verrs *Errors
	require.True(t, errors.As(err, &verrs), "expected *Errors, got %T", err)
	return verrs.Fields
}

func TestValidate_Full(t *testing.T) {
	in, err := Validate(validFields(), false)
	require.NoError(t, err)
	require.True(t, in.Complete())

	s := in.Student()
	assert.Equal(t, "Alice", s.Name)
	assert.Equal(t, int64(101), s.RollNo)
	assert.Equal(t, "CS", s.Course)
	assert.Equal(t, 85, s.Marks)
	assert.Equal(t, "alice@x.com", s.Email)
}

func TestValidate_TrimsStrings(t *testing.T) {
	fields := validFields()
	fields["name"] = "  Bob Smith \t"
	fields["course"] = " Physics "
	fields["email"] = " BOB@Example.ORG "

	in, err := Validate(fields, false)
	require.NoError(t, err)
	assert.Equal(t, "Bob Smith", *in.Name)
	assert.Equal(t, "Physics", *in.Course)
	assert.Equal(t, "bob@example.org", *in.Email)
}

func TestValidate_MissingFields(t *testing.T) {
	_, err := Validate(map[string]any{}, false)
	errs := fieldErrors(t, err)

	for _, f := range []string{FieldName, FieldRollNo, FieldCourse, FieldMarks, FieldEmail} {
		assert.Equal(t, []string{MsgRequired}, errs[f], f)
	}
}

func TestValidate_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		wantErr string
	}{
		{"marks zero", FieldMarks, json.Number("0"), ""},
		{"marks hundred", FieldMarks, json.Number("100"), ""},
		{"marks negative", FieldMarks, json.Number("-1"), MsgMarksRange},
		{"marks over", FieldMarks, json.Number("101"), MsgMarksRange},
		{"roll one", FieldRollNo, json.Number("1"), ""},
		{"roll zero", FieldRollNo, json.Number("0"), MsgRollNoInvalid},
		{"roll negative", FieldRollNo, json.Number("-7"), MsgRollNoInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			fields[tt.field] = tt.value

			_, err := Validate(fields, false)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{tt.wantErr}, fieldErrors(t, err)[tt.field])
		})
	}
}

func TestValidate_IntegerCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
		ok    bool
	}{
		{"json number", json.Number("42"), 42, true},
		{"whole decimal", json.Number("42.0"), 42, true},
		{"exponent", json.Number("4.2e1"), 42, true},
		{"fraction", json.Number("42.5"), 0, false},
		{"numeric string", "42", 42, true},
		{"padded string", " 42 ", 42, true},
		{"decimal string", "42.00", 42, true},
		{"word", "forty", 0, false},
		{"float64", float64(42), 42, true},
		{"int", 42, 42, true},
		{"bool", true, 0, false},
		{"list", []any{1}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Validate(map[string]any{"roll_no": tt.value}, true)
			if !tt.ok {
				assert.Equal(t, []string{MsgNotInteger}, fieldErrors(t, err)[FieldRollNo])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *in.RollNo)
		})
	}
}

func TestValidate_StringRules(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		wantErr string
	}{
		{"blank name", FieldName, "   ", MsgNameEmpty},
		{"empty name", FieldName, "", MsgNameEmpty},
		{"long name", FieldName, strings.Repeat("n", 201), "Ensure this field has no more than 200 characters."},
		{"blank course", FieldCourse, " ", MsgBlank},
		{"course at limit", FieldCourse, strings.Repeat("c", 100), ""},
		{"long course", FieldCourse, strings.Repeat("c", 101), "Ensure this field has no more than 100 characters."},
		{"numeric course", FieldCourse, json.Number("101"), ""},
		{"bool name", FieldName, false, MsgNotString},
		{"object course", FieldCourse, map[string]any{}, MsgNotString},
		{"bad email", FieldEmail, "not-an-email", MsgEmailInvalid},
		{"blank email", FieldEmail, "", MsgBlank},
		{"null email", FieldEmail, nil, MsgNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			fields[tt.field] = tt.value

			_, err := Validate(fields, false)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, []string{tt.wantErr}, fieldErrors(t, err)[tt.field])
		})
	}
}

func TestValidate_Partial(t *testing.T) {
	in, err := Validate(map[string]any{"marks": json.Number("90")}, true)
	require.NoError(t, err)

	assert.False(t, in.Complete())
	require.NotNil(t, in.Marks)
	assert.Equal(t, 90, *in.Marks)
	assert.Nil(t, in.Name)
	assert.Nil(t, in.RollNo)
	assert.Nil(t, in.Course)
	assert.Nil(t, in.Email)
}

func TestValidate_PartialStillChecksSuppliedFields(t *testing.T) {
	_, err := Validate(map[string]any{"marks": json.Number("150"), "email": "nope"}, true)
	errs := fieldErrors(t, err)

	assert.Len(t, errs, 2)
	assert.Equal(t, []string{MsgMarksRange}, errs[FieldMarks])
	assert.Equal(t, []string{MsgEmailInvalid}, errs[FieldEmail])
}

func TestValidate_IgnoresUnknownKeys(t *testing.T) {
	fields := validFields()
	fields["id"] = "abc"
	fields["nickname"] = "Al"

	_, err := Validate(fields, false)
	assert.NoError(t, err)
}

func TestErrors_ErrorIsSorted(t *testing.T) {
	var errs Errors
	errs.Add(FieldMarks, MsgMarksRange)
	errs.Add(FieldEmail, MsgEmailInvalid)

	assert.Equal(t,
		"validation failed: email: Enter a valid email address.; marks: Marks must be between 0 and 100.",
		errs.Error())
}
