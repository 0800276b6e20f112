package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("file not found")

type Metadata struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// FileStore keeps résumé binaries.
type FileStore interface {
	Upload(ctx context.Context, data []byte, filename, mime string) (string, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Metadata(ctx context.Context, fileID string) (*Metadata, error)
	Delete(ctx context.Context, fileID string) error
}

// LocalStore writes each file as <dir>/<id>.bin next to a <id>.json
// metadata record.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Upload(_ context.Context, data []byte, filename, mime string) (string, error) {
	id := uuid.NewString()
	meta := Metadata{
		ID:         id,
		Name:       filepath.Base(filename),
		MimeType:   mime,
		Size:       int64(len(data)),
		UploadedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	if err := writeAtomic(s.blobPath(id), data); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := writeAtomic(s.metaPath(id), raw); err != nil {
		_ = os.Remove(s.blobPath(id))
		return "", fmt.Errorf("write metadata: %w", err)
	}
	return id, nil
}

func (s *LocalStore) Download(_ context.Context, fileID string) ([]byte, error) {
	if err := validID(fileID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.blobPath(fileID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	return data, err
}

func (s *LocalStore) Metadata(_ context.Context, fileID string) (*Metadata, error) {
	if err := validID(fileID); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.metaPath(fileID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

func (s *LocalStore) Delete(_ context.Context, fileID string) error {
	if err := validID(fileID); err != nil {
		return err
	}
	for _, p := range []string{s.blobPath(fileID), s.metaPath(fileID)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *LocalStore) blobPath(id string) string { return filepath.Join(s.dir, id+".bin") }
func (s *LocalStore) metaPath(id string) string { return filepath.Join(s.dir, id+".json") }

// validID keeps ids from escaping the upload directory.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrNotFound, id)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
