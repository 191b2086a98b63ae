// Package mongodb provides a MongoDB-backed implementation of
// storage.Storage using the official go.mongodb.org/mongo-driver.
//
// Each student is one document in a single collection. The collection carries
// unique indexes on roll_no and email (created by Migrate), so the database
// itself rejects duplicates even when two creates race past the gateway's
// pre-checks.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// Index names created by Migrate. These are the server default names for
// single-field ascending indexes.
const (
	RollNoIndex = "roll_no_1"
	EmailIndex  = "email_1"
)

const defaultTimeout = 10 * time.Second

// document is the stored shape: the business fields inline next to _id.
type document struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	types.Student `bson:",inline"`
}

func (d document) student() types.Student {
	s := d.Student
	s.ID = d.ID.Hex()
	return s
}

// Mongo is the concrete implementation of storage.Storage.
// The client holds a connection pool and is safe for concurrent use.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// New connects to cfg.URI and verifies the connection with a ping.
func New(ctx context.Context, cfg config.Mongo) (*Mongo, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb.New: ping: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    timeout,
	}, nil
}

// Migrate creates the unique indexes on roll_no and email. Creating an index
// that already exists with the same definition is a no-op in MongoDB.
func (m *Mongo) Migrate(ctx context.Context) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roll_no", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(RollNoIndex),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(EmailIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("Migrate: create indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	ctx, cancel := m.withTimeout(context.Background())
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	result, err := m.collection.InsertOne(ctx, document{Student: student})
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", translate(err))
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return types.Student{}, fmt.Errorf("CreateStudent: unexpected inserted id type %T", result.InsertedID)
	}

	student.ID = id.Hex()
	return student, nil
}

func (m *Mongo) GetStudentByRollNo(ctx context.Context, rollNo int64) (types.Student, error) {
	student, err := m.findOne(ctx, bson.M{"roll_no": rollNo})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByRollNo: %w", err)
	}
	return student, nil
}

func (m *Mongo) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	student, err := m.findOne(ctx, bson.M{"email": email})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("no student found with email %q: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail: %w", err)
	}
	return student, nil
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (types.Student, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	var doc document
	if err := m.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return types.Student{}, err
	}
	return doc.student(), nil
}

// GetStudents returns every document in natural order.
func (m *Mongo) GetStudents(ctx context.Context) ([]types.Student, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cursor, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.student())
	}
	return students, nil
}

// UpdateStudentByRollNo $sets every business field and returns the document
// as it is after the update.
func (m *Mongo) UpdateStudentByRollNo(ctx context.Context, rollNo int64, student types.Student) (types.Student, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	err := m.collection.FindOneAndUpdate(ctx,
		bson.M{"roll_no": rollNo},
		bson.M{"$set": student},
		opts,
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByRollNo: %w", translate(err))
	}
	return doc.student(), nil
}

func (m *Mongo) DeleteStudentByRollNo(ctx context.Context, rollNo int64) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	result, err := m.collection.DeleteOne(ctx, bson.M{"roll_no": rollNo})
	if err != nil {
		return fmt.Errorf("DeleteStudentByRollNo: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("no student found with roll number %d: %w", rollNo, storage.ErrNotFound)
	}
	return nil
}

func (m *Mongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// translate maps an E11000 duplicate key error to storage.ErrDuplicate.
func translate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", storage.ErrDuplicate, err.Error())
	}
	return err
}
