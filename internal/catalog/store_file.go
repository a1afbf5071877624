package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend stores the document as one JSON file. Saves go to a temp file in
// the same directory which is then renamed over the original, so a crash
// mid-write leaves the previous document intact.
type FileBackend struct {
	path string
	perm fs.FileMode
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path, perm: 0o644}
}

func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load(ctx context.Context) (Document, bool, error) {
	raw, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return Document{}, false, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return doc, true, nil
}

func (b *FileBackend) Save(ctx context.Context, doc Document) error {
	raw, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	dir, base := filepath.Split(b.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, b.perm); err != nil {
		return err
	}
	return os.Rename(tmpName, b.path)
}

// Ping checks that the directory holding the file is still there.
func (b *FileBackend) Ping(ctx context.Context) error {
	dir := filepath.Dir(b.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
