// Package webdav implements the remote adapter over a WebDAV server.
package webdav

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// DefaultTimeout bounds every WebDAV request
const DefaultTimeout = 30 * time.Second

// Adapter implements the adapter.Adapter interface for WebDAV
type Adapter struct {
	client *gowebdav.Client
	root   string
}

// New creates a WebDAV adapter for the remote URL and credentials.
// The connection is verified with a PROPFIND on the root.
func New(ctx context.Context, remote domain.Remote) (*Adapter, error) {
	client := gowebdav.NewClient(remote.URL, remote.Username, remote.Password)
	client.SetTimeout(DefaultTimeout)

	a := NewWithClient(client, remote.Root)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := client.Connect(); err != nil {
		return nil, mapError("connect", a.root, err)
	}
	return a, nil
}

// NewWithClient wraps an existing gowebdav client
func NewWithClient(client *gowebdav.Client, root string) *Adapter {
	root = strings.TrimSuffix(domain.CleanPath(root), "/")
	return &Adapter{client: client, root: root}
}

// joinPath maps a slash-rooted remote path under the adapter root
func (a *Adapter) joinPath(p string) string {
	return a.root + domain.CleanPath(p)
}

// List returns the entries directly under the given directory
func (a *Adapter) List(ctx context.Context, dirPath string) ([]*domain.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapError("list", dirPath, err)
	}

	infos, err := a.client.ReadDir(a.joinPath(dirPath))
	if err != nil {
		return nil, mapError("list", dirPath, err)
	}

	entries := make([]*domain.Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(dirPath, info))
	}
	return entries, nil
}

// CreateDirectory issues MKCOL; an existing collection answers 405
func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	if err := ctx.Err(); err != nil {
		return mapError("mkdir", dirPath, err)
	}
	return mapError("mkdir", dirPath, a.client.Mkdir(a.joinPath(dirPath), 0755))
}

// Delete removes a file or a collection with its members
func (a *Adapter) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return mapError("delete", p, err)
	}
	if domain.CleanPath(p) == "/" {
		return &domain.RemoteError{Op: "delete", Path: p, Err: domain.ErrPermissionDenied}
	}

	// gowebdav treats a missing resource as success
	if _, err := a.client.Stat(a.joinPath(p)); err != nil {
		return mapError("delete", p, err)
	}
	return mapError("delete", p, a.client.Remove(a.joinPath(p)))
}

// Move issues MOVE without overwrite; an existing target answers 412
func (a *Adapter) Move(ctx context.Context, fromPath, toPath string) error {
	if err := ctx.Err(); err != nil {
		return mapError("move", fromPath, err)
	}
	return mapError("move", fromPath, a.client.Rename(a.joinPath(fromPath), a.joinPath(toPath), false))
}

// Thumbnail streams image files as their own preview; WebDAV has no
// server-side thumbnail API
func (a *Adapter) Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error) {
	if entry.IsDir() || !strings.HasPrefix(entry.ContentType, "image/") {
		return nil, domain.NewRemoteError("thumbnail", entry.Path, http.StatusNotFound, nil)
	}
	return a.Read(ctx, entry.Path)
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapError("read", filePath, err)
	}
	rc, err := a.client.ReadStream(a.joinPath(filePath))
	if err != nil {
		return nil, mapError("read", filePath, err)
	}
	return rc, nil
}

// Write uploads a file with PUT, overwriting any existing one
func (a *Adapter) Write(ctx context.Context, filePath string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return mapError("write", filePath, err)
	}
	return mapError("write", filePath, a.client.WriteStream(a.joinPath(filePath), r, 0644))
}

// Close releases any resources
func (a *Adapter) Close() error {
	return nil
}

// entryFromInfo converts a PROPFIND result to a domain entry
func entryFromInfo(dirPath string, info os.FileInfo) *domain.Entry {
	entryPath := path.Join(domain.CleanPath(dirPath), info.Name())
	if info.IsDir() {
		return domain.NewEntry(info.Name(), entryPath, domain.KindDirectory, 0, info.ModTime())
	}

	e := domain.NewEntry(info.Name(), entryPath, domain.KindFile, info.Size(), info.ModTime())
	e.ContentType = contentType(info)
	return e
}

// contentType prefers the server's getcontenttype property and falls back
// to the file extension
func contentType(info os.FileInfo) string {
	var ct string
	switch f := info.(type) {
	case gowebdav.File:
		ct = f.ContentType()
	case *gowebdav.File:
		ct = f.ContentType()
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(path.Ext(info.Name())); byExt != "" {
		return byExt
	}
	return ct
}

// mapError converts gowebdav errors to remote errors carrying the HTTP status
func mapError(op, p string, err error) error {
	if err == nil {
		return nil
	}

	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}

	var se gowebdav.StatusError
	if errors.As(err, &se) {
		return domain.NewRemoteError(op, p, se.Status, nil)
	}

	if errors.Is(err, os.ErrNotExist) {
		return domain.NewRemoteError(op, p, http.StatusNotFound, nil)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return &domain.RemoteError{Op: op, Path: p, Err: errors.Join(domain.ErrNetworkError, err)}
	}

	return &domain.RemoteError{Op: op, Path: p, Err: err}
}
