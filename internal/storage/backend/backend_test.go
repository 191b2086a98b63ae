package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage/memory"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlite"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), config.Storage{Driver: config.DriverMemory})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &memory.Memory{}, s)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), config.Storage{
		Driver: config.DriverSQLite,
		SQLite: config.SQLite{Path: filepath.Join(t.TempDir(), "students.db")},
	})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &sqlite.SQLite{}, s)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Driver: "redis"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
