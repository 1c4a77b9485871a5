package document

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zatekoja/productar/internal/domain/entities"
	"github.com/zatekoja/productar/internal/domain/providers"
	apperrors "github.com/zatekoja/productar/pkg/errors"
	"gopkg.in/yaml.v3"
)

// BackendNameDocument identifies the static document backend
const BackendNameDocument = "document"

// FileBackend reads a catalog document with top-level products and globalSettings.
// JSON and YAML are selected by file extension.
type FileBackend struct {
	path string
}

// NewFileBackend creates the secondary configuration backend
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

var _ providers.ConfigurationBackend = (*FileBackend)(nil)

// Name implements ConfigurationBackend
func (b *FileBackend) Name() string {
	return BackendNameDocument
}

// Path returns the document location
func (b *FileBackend) Path() string {
	return b.path
}

// Fetch implements ConfigurationBackend
func (b *FileBackend) Fetch(ctx context.Context) (*entities.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("failed to read catalog document %s: %v", b.path, err))
	}

	catalog, err := Decode(data, filepath.Ext(b.path))
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to parse catalog document %s: %v", b.path, err))
	}
	catalog.Source = BackendNameDocument
	return catalog, nil
}

// Decode parses a catalog document. ext selects YAML for ".yaml"/".yml", JSON otherwise.
func Decode(data []byte, ext string) (*entities.Catalog, error) {
	var catalog entities.Catalog
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, err
		}
	}
	if catalog.Products == nil {
		catalog.Products = []entities.Product{}
	}
	return &catalog, nil
}
