// Package types holds the data structures shared across the application.
// Keeping them in one place prevents import cycles: handlers, the records
// gateway and every storage backend import types without depending on each
// other.
package types

// Student is a persisted student record.
//
// Struct tags:
//
//  1. json:"..." is the REST wire shape.
//  2. bson:"..." is the MongoDB document shape. ID is skipped here;
//     the mongodb backend stores it as the document's own _id.
//  3. dynamodbav:"..." is the DynamoDB item shape.
type Student struct {
	ID     string `json:"id"      bson:"-"       dynamodbav:"id"`
	Name   string `json:"name"    bson:"name"    dynamodbav:"name"`
	RollNo int64  `json:"roll_no" bson:"roll_no" dynamodbav:"roll_no"`
	Course string `json:"course"  bson:"course"  dynamodbav:"course"`
	Marks  int    `json:"marks"   bson:"marks"   dynamodbav:"marks"`
	Email  string `json:"email"   bson:"email"   dynamodbav:"email"`
}

// StudentInput is a validated, normalized set of student fields.
// A nil pointer means the field was not supplied, which only happens for
// partial updates.
type StudentInput struct {
	Name   *string
	RollNo *int64
	Course *string
	Marks  *int
	Email  *string
}

// Complete reports whether every business field is set.
func (in StudentInput) Complete() bool {
	return in.Name != nil && in.RollNo != nil && in.Course != nil &&
		in.Marks != nil && in.Email != nil
}

// Student builds a record from a complete input. Missing fields are left at
// their zero value; callers check Complete first.
func (in StudentInput) Student() Student {
	var s Student
	return s.Merge(in)
}

// Merge returns a copy of s with every supplied field of in applied.
// The ID is never touched.
func (s Student) Merge(in StudentInput) Student {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.RollNo != nil {
		s.RollNo = *in.RollNo
	}
	if in.Course != nil {
		s.Course = *in.Course
	}
	if in.Marks != nil {
		s.Marks = *in.Marks
	}
	if in.Email != nil {
		s.Email = *in.Email
	}
	return s
}
