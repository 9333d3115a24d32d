package adapter

import (
	"context"
	"io"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// Adapter defines the interface for remote storage backends.
// All implementations take absolute slash-rooted paths and return
// *domain.RemoteError for failed remote calls so the caller can classify
// them by status code.
type Adapter interface {
	// List returns the entries directly under the given directory path
	List(ctx context.Context, path string) ([]*domain.Entry, error)

	// CreateDirectory creates a single directory at path
	// Returns a RemoteError wrapping domain.ErrAlreadyExists if it exists
	CreateDirectory(ctx context.Context, path string) error

	// Delete removes a file or a directory with its contents
	Delete(ctx context.Context, path string) error

	// Move renames or relocates a resource between two absolute paths
	Move(ctx context.Context, fromPath, toPath string) error

	// Thumbnail returns an encoded preview image of at most width x height
	// Returns domain.ErrNotFound when the backend has no preview for entry
	Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error)

	// Read opens a file for reading
	// Caller is responsible for closing the reader
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or overwrites a file
	Write(ctx context.Context, path string, r io.Reader, size int64) error

	// Close releases any resources held by the adapter
	Close() error
}

// AdapterFactory creates adapters for a given remote configuration
type AdapterFactory interface {
	// Create returns an adapter for the given remote
	Create(ctx context.Context, remote domain.Remote) (Adapter, error)

	// Supports returns true if this factory can handle the remote type
	Supports(remoteType domain.RemoteType) bool
}
