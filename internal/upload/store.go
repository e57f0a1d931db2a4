package upload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrExtension = errors.New("file must be .jpg, .jpeg or .png")

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// CheckExtension validates the extension of an uploaded file name.
func CheckExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrExtension, filename)
	}
	return ext, nil
}

// Store keeps uploaded images on disk under unique names.
type Store struct {
	dir     string
	enabled bool
}

// NewStore creates dir when saving is enabled.
func NewStore(dir string, enabled bool) (*Store, error) {
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create upload directory: %w", err)
		}
	}
	return &Store{dir: dir, enabled: enabled}, nil
}

// Save writes data and returns the stored path, or "" when saving is off.
func (s *Store) Save(filename string, data []byte) (string, error) {
	ext, err := CheckExtension(filename)
	if err != nil {
		return "", err
	}
	if !s.enabled {
		return "", nil
	}

	path := filepath.Join(s.dir, uuid.New().String()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("could not save upload: %w", err)
	}
	return path, nil
}
