// Package intake stores uploaded photos on local disk and reads them back for
// encoding into model requests.
package intake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Upload is a single user-supplied image.
type Upload struct {
	Name string
	Data []byte
}

// Store writes uploads into Dir. Files are never cleaned up.
type Store struct {
	Dir string
	// UniqueNames prefixes every stored file with a random UUID. Without it a
	// second upload with the same name silently replaces the first.
	UniqueNames bool
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, uniqueNames bool) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir, UniqueNames: uniqueNames}
}

// Save writes each upload and returns the resulting paths in upload order.
// The first write failure aborts the batch; files already written are left
// in place.
func (s *Store) Save(uploads []Upload) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	paths := make([]string, 0, len(uploads))
	for i, u := range uploads {
		path := filepath.Join(s.Dir, s.fileName(i, u.Name))
		if err := os.WriteFile(path, u.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to save upload %q: %w", u.Name, err)
		}
		paths = append(paths, path)
	}

	log.Info().Int("count", len(paths)).Str("dir", s.Dir).Msg("saved uploads")
	return paths, nil
}

// Load reads the files at paths in order.
func (s *Store) Load(paths []string) ([][]byte, error) {
	images := make([][]byte, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		images = append(images, data)
	}
	return images, nil
}

// fileName derives the stored name from the original one. Directory parts
// are stripped so uploads cannot escape Dir.
func (s *Store) fileName(index int, name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == "" {
		base = fmt.Sprintf("upload-%d.jpg", index+1)
	}
	if s.UniqueNames {
		base = uuid.NewString() + "_" + base
	}
	return base
}
