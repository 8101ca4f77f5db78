// Package filesystem provides a read-only file system backend for assetgate.
// Keys resolve inside an os.Root, etags are SHA256 digests of the content
// and content types are detected from file extensions.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sagarc03/assetgate"
)

// Store serves objects from a directory.
type Store struct {
	root *os.Root
	// etags caches digests by key; an entry is reused while size and
	// modification time are unchanged.
	etags sync.Map
}

type etagEntry struct {
	size    int64
	modTime time.Time
	etag    string
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root) *Store {
	return &Store{root: root}
}

// Get opens the file stored under key. Returns assetgate.ErrNotFound if the
// file does not exist, is a directory, is not readable, resolves outside the
// root through a symlink, or key is not a valid object key.
func (s *Store) Get(ctx context.Context, key string) (*assetgate.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, assetgate.NewStorageError(key, err)
	}

	if !assetgate.IsValidKey(key) {
		return nil, fmt.Errorf("get %q: %w", key, assetgate.ErrNotFound)
	}

	f, err := s.root.Open(key)
	if err != nil {
		if isUnreachable(err) {
			return nil, fmt.Errorf("get %q: %w", key, assetgate.ErrNotFound)
		}
		return nil, assetgate.NewStorageError(key, fmt.Errorf("open file: %w", err))
	}

	obj, err := s.object(key, f)
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "key", key, "err", closeErr)
		}
		return nil, err
	}

	return obj, nil
}

func (s *Store) object(key string, f *os.File) (*assetgate.Object, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, assetgate.NewStorageError(key, fmt.Errorf("stat file: %w", err))
	}

	if info.IsDir() {
		return nil, fmt.Errorf("get %q: %w", key, assetgate.ErrNotFound)
	}

	etag, err := s.etag(key, info, f)
	if err != nil {
		return nil, assetgate.NewStorageError(key, err)
	}

	return &assetgate.Object{
		Key:          key,
		Body:         f,
		Size:         info.Size(),
		ETag:         etag,
		LastModified: info.ModTime(),
		Metadata: assetgate.HTTPMetadata{
			ContentType: detectContentType(key),
		},
	}, nil
}

func (s *Store) etag(key string, info fs.FileInfo, f *os.File) (string, error) {
	if cached, ok := s.etags.Load(key); ok {
		e := cached.(etagEntry)
		if e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
			return e.etag, nil
		}
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}

	etag := hex.EncodeToString(h.Sum(nil))
	s.etags.Store(key, etagEntry{size: info.Size(), modTime: info.ModTime(), etag: etag})

	return etag, nil
}

// isUnreachable reports whether an open error means the key cannot be
// served from the root at all: missing, unreadable, or a symlink leading
// outside the root.
func isUnreachable(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return true
	}
	// os.Root does not export its escape error.
	return strings.Contains(err.Error(), "path escapes from parent")
}

func detectContentType(path string) string {
	ext := filepath.Ext(path)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
