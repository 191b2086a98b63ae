package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/storagetest"
)

// testURIEnv points the integration tests at a running MongoDB.
const testURIEnv = "STUDENTS_TEST_MONGO_URI"

func TestDocumentShape(t *testing.T) {
	id := primitive.NewObjectID()
	student := storagetest.Alice
	student.ID = "ignored"

	raw, err := bson.Marshal(document{ID: id, Student: student})
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))

	assert.Equal(t, id, m["_id"])
	assert.Equal(t, "Alice", m["name"])
	assert.Equal(t, int64(101), m["roll_no"])
	assert.Equal(t, "alice@x.com", m["email"])
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "student")
}

func TestDocumentStudentUsesHexID(t *testing.T) {
	id := primitive.NewObjectID()
	got := document{ID: id, Student: storagetest.Bob}.student()

	assert.Equal(t, id.Hex(), got.ID)
	assert.Equal(t, storagetest.Bob.RollNo, got.RollNo)
}

func TestSetOmitsID(t *testing.T) {
	student := storagetest.Alice
	student.ID = "65f0c0ffee"

	raw, err := bson.Marshal(student)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	assert.NotContains(t, m, "_id")
	assert.NotContains(t, m, "id")
	assert.Len(t, m, 5)
}

func TestConformance(t *testing.T) {
	uri := os.Getenv(testURIEnv)
	if uri == "" {
		t.Skipf("%s not set", testURIEnv)
	}

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		ctx := context.Background()
		cfg := config.Mongo{
			URI:        uri,
			Database:   "students_test_" + uuid.NewString()[:8],
			Collection: "students",
			Timeout:    5 * time.Second,
		}

		m, err := New(ctx, cfg)
		require.NoError(t, err)
		require.NoError(t, m.Migrate(ctx))

		// The suite closes m before this runs, so drop through a fresh client.
		t.Cleanup(func() {
			admin, err := New(context.Background(), cfg)
			if err != nil {
				return
			}
			defer admin.Close()
			_ = admin.collection.Database().Drop(context.Background())
		})
		return m
	})
}
