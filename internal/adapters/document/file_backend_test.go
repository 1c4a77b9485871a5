package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/productar/pkg/errors"
)

func TestFileBackend_FetchJSON(t *testing.T) {
	backend := NewFileBackend(filepath.Join("testdata", "products.json"))

	catalog, err := backend.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, BackendNameDocument, catalog.Source)
	require.Len(t, catalog.Products, 3)
	assert.Equal(t, "p1", catalog.Products[0].ID)
	require.NotNil(t, catalog.Products[0].UI)
	assert.Equal(t, "#2ecc71", catalog.Products[0].UI.Colors.Primary)
	assert.Nil(t, catalog.Products[1].UI)
	assert.Equal(t, 1, catalog.Products[2].TargetIndex)
	assert.Equal(t, "Point your camera at the box", catalog.GlobalSettings.InstructionText)
}

func TestFileBackend_FetchYAML(t *testing.T) {
	backend := NewFileBackend(filepath.Join("testdata", "products.yaml"))

	catalog, err := backend.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, catalog.Products, 2)
	assert.Equal(t, "models/peppermint.glb", catalog.Products[1].Model.Path)
	assert.Equal(t, 1.0, catalog.Products[0].Model.Scale.Y)
	assert.Equal(t, "Loading", catalog.GlobalSettings.LoadingText)
}

func TestFileBackend_MissingFile(t *testing.T) {
	backend := NewFileBackend(filepath.Join(t.TempDir(), "absent.json"))

	_, err := backend.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestFileBackend_MalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileBackend(path).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDecode_EmptyDocumentHasNoProducts(t *testing.T) {
	catalog, err := Decode([]byte(`{}`), ".json")
	require.NoError(t, err)
	assert.NotNil(t, catalog.Products)
	assert.Empty(t, catalog.Products)
}
