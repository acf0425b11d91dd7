package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by OpenRead when no content exists for the
// requested key. Handlers map it to a 404 without exposing storage detail.
var ErrObjectNotFound = errors.New("storage: object not found")

// Store is the content backend contract. Exactly one namespace is created
// per user at registration, and every object lives under the path produced
// by ResolvePath. WriteStream consumes the reader chunk by chunk and never
// holds the whole payload in memory; a write that did not complete must not
// leave a readable object behind.
type Store interface {
	CreateNamespace(ctx context.Context, rootFolderID string) error
	WriteStream(ctx context.Context, resolvedPath, fileID string, r io.Reader) (int64, error)
	OpenRead(ctx context.Context, resolvedPath, fileID string) (io.ReadCloser, int64, error)
}
