package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wgdash/internal/models"
)

// Persister — долговременное хранилище Dataset. Save перезаписывает всё целиком.
type Persister interface {
	Load(ctx context.Context) (models.Dataset, error)
	Save(ctx context.Context, ds *models.Dataset) error
}

// FileStore хранит Dataset в JSON-файле (data.json).
// Запись — обычная перезапись файла, без rename и fsync.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// Load читает файл; если его нет — создаёт пустой.
func (f *FileStore) Load(_ context.Context) (models.Dataset, error) {
	var ds models.Dataset
	file, err := os.OpenFile(f.Path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return ds, err
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return ds, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, &ds); err != nil {
		return ds, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return ds, nil
}

func (f *FileStore) Save(_ context.Context, ds *models.Dataset) error {
	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}
