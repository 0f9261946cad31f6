package blob

import (
	"carecensus/internal/infra/blob/fs"
	memorystore "carecensus/internal/infra/blob/memory"
)

// NewMemory returns an in-memory Store for tests and one-shot runs.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a Store rooted at dir, creating it if needed.
func NewFilesystem(dir string) (Store, error) {
	s, err := fs.New(dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}
