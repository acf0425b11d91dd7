package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()

	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating local store: %v", err)
	}
	return store
}

func readObject(t *testing.T, store *LocalStore, path, fileID string) []byte {
	t.Helper()

	obj, size, err := store.OpenRead(context.Background(), path, fileID)
	if err != nil {
		t.Fatalf("failed opening object: %v", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("failed reading object: %v", err)
	}
	if int64(len(data)) != size {
		t.Fatalf("reported size %d does not match content length %d", size, len(data))
	}
	return data
}

func TestLocalStoreWriteAndRead(t *testing.T) {
	store := newTestLocalStore(t)
	path := ResolvePath(uuid.New().String(), uuid.New().String())
	fileID := uuid.New().String()

	t.Run("round-trips content", func(t *testing.T) {
		content := []byte("hello, stored bytes")

		written, err := store.WriteStream(context.Background(), path, fileID, bytes.NewReader(content))
		if err != nil {
			t.Fatalf("write failed: %v", err)
		}
		if written != int64(len(content)) {
			t.Fatalf("expected %d bytes written, got %d", len(content), written)
		}

		if got := readObject(t, store, path, fileID); !bytes.Equal(got, content) {
			t.Fatalf("expected content %q, got %q", content, got)
		}
	})

	t.Run("overwrite replaces prior content", func(t *testing.T) {
		replacement := []byte("entirely new content")

		if _, err := store.WriteStream(context.Background(), path, fileID, bytes.NewReader(replacement)); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}

		if got := readObject(t, store, path, fileID); !bytes.Equal(got, replacement) {
			t.Fatalf("expected replaced content %q, got %q", replacement, got)
		}
	})

	t.Run("handles zero-length upload", func(t *testing.T) {
		emptyID := uuid.New().String()

		written, err := store.WriteStream(context.Background(), path, emptyID, bytes.NewReader(nil))
		if err != nil {
			t.Fatalf("zero-length write failed: %v", err)
		}
		if written != 0 {
			t.Fatalf("expected 0 bytes written, got %d", written)
		}

		if got := readObject(t, store, path, emptyID); len(got) != 0 {
			t.Fatalf("expected empty object, got %d bytes", len(got))
		}
	})

	t.Run("missing object yields ErrObjectNotFound", func(t *testing.T) {
		_, _, err := store.OpenRead(context.Background(), path, uuid.New().String())
		if !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("expected ErrObjectNotFound, got %v", err)
		}
	})
}

// failingReader errors after yielding a prefix, like a client that
// disconnects mid-upload.
type failingReader struct {
	prefix io.Reader
}

func (r *failingReader) Read(p []byte) (int, error) {
	n, err := r.prefix.Read(p)
	if err == io.EOF {
		return n, errors.New("stream interrupted")
	}
	return n, err
}

func TestLocalStoreInterruptedWrite(t *testing.T) {
	store := newTestLocalStore(t)
	path := ResolvePath(uuid.New().String(), uuid.New().String())
	fileID := uuid.New().String()

	t.Run("failed write leaves no readable object", func(t *testing.T) {
		reader := &failingReader{prefix: strings.NewReader("partial data")}

		if _, err := store.WriteStream(context.Background(), path, fileID, reader); err == nil {
			t.Fatal("expected interrupted write to fail")
		}

		if _, _, err := store.OpenRead(context.Background(), path, fileID); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("expected no object after failed write, got %v", err)
		}
	})

	t.Run("cancelled context stops the write", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.WriteStream(ctx, path, fileID, strings.NewReader("never persisted"))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		if _, _, err := store.OpenRead(context.Background(), path, fileID); !errors.Is(err, ErrObjectNotFound) {
			t.Fatalf("expected no object after cancelled write, got %v", err)
		}
	})

	t.Run("failed write keeps existing content intact", func(t *testing.T) {
		original := []byte("original content survives")
		if _, err := store.WriteStream(context.Background(), path, fileID, bytes.NewReader(original)); err != nil {
			t.Fatalf("setup write failed: %v", err)
		}

		reader := &failingReader{prefix: strings.NewReader("doomed overwrite")}
		if _, err := store.WriteStream(context.Background(), path, fileID, reader); err == nil {
			t.Fatal("expected interrupted overwrite to fail")
		}

		if got := readObject(t, store, path, fileID); !bytes.Equal(got, original) {
			t.Fatalf("expected original content to survive, got %q", got)
		}
	})

	t.Run("no temp files linger after failures", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Join(store.basePath, path))
		if err != nil {
			t.Fatalf("failed listing storage dir: %v", err)
		}
		for _, entry := range entries {
			if strings.Contains(entry.Name(), ".part-") {
				t.Fatalf("found leftover temp file %q", entry.Name())
			}
		}
	})
}
