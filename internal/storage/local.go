package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/docvault/backend/pkg/logger"
)

// LocalStore keeps content on the local filesystem under a base directory.
// Path segments are server-generated uuids, so keys never contain
// user-controlled names.
type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) CreateNamespace(ctx context.Context, rootFolderID string) error {
	return os.MkdirAll(filepath.Join(s.basePath, rootFolderID), 0o755)
}

// WriteStream copies the reader into a temporary file and renames it over
// the final key only once the copy completed. A cancelled or failed upload
// leaves no readable object, and a successful one atomically replaces any
// prior content.
func (s *LocalStore) WriteStream(ctx context.Context, resolvedPath, fileID string, r io.Reader) (int64, error) {
	dir := filepath.Join(s.basePath, resolvedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	target := filepath.Join(dir, fileID)
	tmp, err := os.CreateTemp(dir, fileID+".part-*")
	if err != nil {
		return 0, err
	}

	written, err := copyChunks(ctx, tmp, r)
	if err == nil {
		err = tmp.Close()
	} else {
		tmp.Close()
	}
	if err != nil {
		os.Remove(tmp.Name())
		logger.Error("local_store_write_failed", err, map[string]interface{}{
			"path":    resolvedPath,
			"file_id": fileID,
			"written": written,
		})
		return written, err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return written, err
	}

	logger.Info("local_store_write_success", map[string]interface{}{
		"path":    resolvedPath,
		"file_id": fileID,
		"size":    written,
	})
	return written, nil
}

func (s *LocalStore) OpenRead(ctx context.Context, resolvedPath, fileID string) (io.ReadCloser, int64, error) {
	target := filepath.Join(s.basePath, resolvedPath, fileID)

	f, err := os.Open(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, info.Size(), nil
}

// copyChunks is io.Copy with a cancellation check per chunk, so an aborted
// upload stops consuming the request body promptly.
func copyChunks(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			wn, writeErr := dst.Write(buf[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if wn < n {
				return written, io.ErrShortWrite
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
