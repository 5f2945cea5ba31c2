package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	vectorsFile = "index_vectors.bin"
	idsFile     = "index_ids.json"
)

// FileStore persists index snapshots under a data directory as a binary
// vector blob plus a JSON id list. Writes go through a temp file and rename
// so a crash mid-save never leaves a torn snapshot behind.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load(_ context.Context) (*Snapshot, error) {
	vectors, err := os.ReadFile(filepath.Join(f.dir, vectorsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	ids, err := os.ReadFile(filepath.Join(f.dir, idsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	return DecodeSnapshot(vectors, ids)
}

func (f *FileStore) Save(_ context.Context, snap *Snapshot) error {
	vectors, ids, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := writeAtomic(filepath.Join(f.dir, vectorsFile), vectors); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(f.dir, idsFile), ids)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
