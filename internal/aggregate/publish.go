package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/starford/showcase/internal/models"
	"github.com/starford/showcase/internal/storage"
)

// Marshal encodes a dataset in its published form: two-space indented
// JSON with a trailing newline.
func Marshal(ds models.Dataset) ([]byte, error) {
	if ds.Projects == nil {
		ds.Projects = []models.Project{}
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("aggregate: encode dataset: %w", err)
	}
	return append(data, '\n'), nil
}

// Publish atomically writes ds to path.
func Publish(store storage.Provider, path string, ds models.Dataset) error {
	data, err := Marshal(ds)
	if err != nil {
		return err
	}
	if err := store.Write(path, data); err != nil {
		return fmt.Errorf("aggregate: publish: %w", err)
	}
	return nil
}

// ReadDataset loads a published dataset. A missing file yields an empty
// dataset.
func ReadDataset(store storage.Provider, path string) (models.Dataset, error) {
	data, err := store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Dataset{Projects: []models.Project{}}, nil
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("aggregate: read dataset: %w", err)
	}
	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return models.Dataset{}, fmt.Errorf("aggregate: decode dataset %s: %w", path, err)
	}
	if ds.Projects == nil {
		ds.Projects = []models.Project{}
	}
	return ds, nil
}
