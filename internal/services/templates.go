package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/polishcitizenship/docfill/internal/models"
)

// DirTemplates loads template files from a local directory.
type DirTemplates struct {
	Dir string
}

// Load reads file from the directory. Only plain file names are accepted.
func (d DirTemplates) Load(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if file == "" || filepath.Base(file) != file {
		return nil, fmt.Errorf("%w: bad template file name %q", models.ErrInvalidInput, file)
	}
	path := filepath.Join(d.Dir, file)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("template %s: %w", path, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return data, nil
}
