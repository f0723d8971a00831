package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/region23/medbook/internal/storage/models"
)

func TestFile_CreatesEmptyCollection(t *testing.T) {
	dir, err := Open(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	require.NoError(t, dir.Ping(context.Background()))

	f, err := NewFile[models.Doctor](dir, "doctors")
	require.NoError(t, err)

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFile_StoreAndLoad(t *testing.T) {
	ctx := context.Background()
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	f, err := NewFile[models.Appointment](dir, "appointments")
	require.NoError(t, err)

	in := []models.Appointment{
		{ID: "C002", DoctorID: "D001", Date: "2026-10-19", Time: "10:00", Status: models.StatusScheduled},
		{ID: "C001", DoctorID: "D001", Date: "2026-10-19", Time: "09:00", Status: models.StatusCancelled},
	}
	require.NoError(t, f.Store(ctx, in))

	out, err := f.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "C002", out[0].ID)
	assert.Equal(t, models.StatusCancelled, out[1].Status)

	entries, err := os.ReadDir(dir.path)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFile_LoadCorruptedFails(t *testing.T) {
	dir, err := Open(t.TempDir())
	require.NoError(t, err)

	f, err := NewFile[models.Patient](dir, "patients")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.path, []byte("{not json"), 0o644))

	_, err = f.Load(context.Background())
	assert.Error(t, err)
}
