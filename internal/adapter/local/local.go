package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// Adapter implements the adapter.Adapter interface over a local directory,
// which stands in for a remote during development and tests
type Adapter struct {
	root string
}

// New creates a new local filesystem adapter
// root must name an existing directory
func New(root string) (*Adapter, error) {
	// Convert to absolute path
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Verify root exists and is a directory
	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.ErrNotDirectory
	}

	return &Adapter{root: absRoot}, nil
}

// resolvePath safely resolves a slash-rooted remote path within root.
// Returns error if the path attempts to escape the root directory.
func (a *Adapter) resolvePath(p string) (string, error) {
	if strings.Contains(p, "\\") {
		return "", domain.ErrPermissionDenied
	}

	// Cleaning a rooted path removes . and ..
	rel := strings.TrimPrefix(path.Clean("/"+p), "/")
	if rel == "" {
		return a.root, nil
	}

	fullPath := filepath.Join(a.root, filepath.FromSlash(rel))

	// Use filepath.Rel to safely verify the path is within root
	// This handles edge cases like root="C:\root" and fullPath="C:\root2"
	r, err := filepath.Rel(a.root, fullPath)
	if err != nil || strings.HasPrefix(r, "..") {
		return "", domain.ErrPermissionDenied
	}

	return fullPath, nil
}

// List returns the entries directly under the given directory
func (a *Adapter) List(ctx context.Context, dirPath string) ([]*domain.Entry, error) {
	fullPath, err := a.resolvePath(dirPath)
	if err != nil {
		return nil, mapError("list", dirPath, err)
	}

	dirEntries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, mapError("list", dirPath, err)
	}

	result := make([]*domain.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		select {
		case <-ctx.Done():
			return nil, mapError("list", dirPath, ctx.Err())
		default:
		}

		info, err := de.Info()
		if err != nil {
			continue // Skip entries we can't read
		}

		entryPath := path.Join(domain.CleanPath(dirPath), de.Name())
		result = append(result, a.entryFromOS(entryPath, filepath.Join(fullPath, de.Name()), info))
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CreateDirectory creates a single directory; the parent must exist
func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	fullPath, err := a.resolvePath(dirPath)
	if err != nil {
		return mapError("mkdir", dirPath, err)
	}
	if fullPath == a.root {
		return mapError("mkdir", dirPath, fs.ErrExist)
	}

	if err := os.Mkdir(fullPath, 0755); err != nil {
		// A missing parent is a conflict, as on WebDAV
		if os.IsNotExist(err) {
			return domain.NewRemoteError("mkdir", dirPath, http.StatusConflict, nil)
		}
		return mapError("mkdir", dirPath, err)
	}
	return nil
}

// Read opens a file for reading
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(filePath)
	if err != nil {
		return nil, mapError("read", filePath, err)
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, mapError("read", filePath, err)
	}
	if info.IsDir() {
		return nil, mapError("read", filePath, domain.ErrNotFile)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, mapError("read", filePath, err)
	}

	return file, nil
}

// Write creates or overwrites a file in an existing directory
func (a *Adapter) Write(ctx context.Context, filePath string, r io.Reader, size int64) error {
	fullPath, err := a.resolvePath(filePath)
	if err != nil {
		return mapError("write", filePath, err)
	}

	dir := filepath.Dir(fullPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return domain.NewRemoteError("write", filePath, http.StatusConflict, nil)
	}

	// Write to temp file first for atomic operation
	tempPath := fullPath + ".cloudbrowse.tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return mapError("write", filePath, err)
	}

	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()

	if copyErr != nil {
		os.Remove(tempPath)
		return mapError("write", filePath, copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return mapError("write", filePath, closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempPath, fullPath); err != nil {
		os.Remove(tempPath)
		return mapError("write", filePath, err)
	}

	return nil
}

// Delete removes a file or a directory with its contents
func (a *Adapter) Delete(ctx context.Context, p string) error {
	fullPath, err := a.resolvePath(p)
	if err != nil {
		return mapError("delete", p, err)
	}
	if fullPath == a.root {
		return mapError("delete", p, domain.ErrPermissionDenied)
	}

	if _, err := os.Lstat(fullPath); err != nil {
		return mapError("delete", p, err)
	}
	return mapError("delete", p, os.RemoveAll(fullPath))
}

// Move renames a file or directory; the target must not exist
func (a *Adapter) Move(ctx context.Context, fromPath, toPath string) error {
	from, err := a.resolvePath(fromPath)
	if err != nil {
		return mapError("move", fromPath, err)
	}
	to, err := a.resolvePath(toPath)
	if err != nil {
		return mapError("move", toPath, err)
	}

	if _, err := os.Lstat(from); err != nil {
		return mapError("move", fromPath, err)
	}
	if _, err := os.Lstat(to); err == nil {
		return domain.NewRemoteError("move", toPath, http.StatusPreconditionFailed, nil)
	}
	if info, err := os.Stat(filepath.Dir(to)); err != nil || !info.IsDir() {
		return domain.NewRemoteError("move", toPath, http.StatusConflict, nil)
	}

	return mapError("move", fromPath, os.Rename(from, to))
}

// Thumbnail returns the image file itself; resizing is left to the caller
func (a *Adapter) Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error) {
	if entry.IsDir() || !strings.HasPrefix(entry.ContentType, "image/") {
		return nil, domain.NewRemoteError("thumbnail", entry.Path, http.StatusNotFound, nil)
	}
	rc, err := a.Read(ctx, entry.Path)
	if err != nil {
		return nil, mapError("thumbnail", entry.Path, err)
	}
	return rc, nil
}

// Close releases any resources (no-op for local adapter)
func (a *Adapter) Close() error {
	return nil
}

// Root returns the root path of this adapter
func (a *Adapter) Root() string {
	return a.root
}

// entryFromOS converts os.FileInfo to a domain entry
func (a *Adapter) entryFromOS(entryPath, fullPath string, info os.FileInfo) *domain.Entry {
	if info.IsDir() {
		return domain.NewEntry(info.Name(), entryPath, domain.KindDirectory, 0, info.ModTime())
	}

	e := domain.NewEntry(info.Name(), entryPath, domain.KindFile, info.Size(), info.ModTime())
	if mtype, err := mimetype.DetectFile(fullPath); err == nil {
		e.ContentType = mtype.String()
	}
	return e
}

// mapError converts OS errors to remote errors with the status a WebDAV
// server would have answered
func mapError(op, p string, err error) error {
	if err == nil {
		return nil
	}

	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}

	switch {
	case os.IsNotExist(err):
		return domain.NewRemoteError(op, p, http.StatusNotFound, nil)
	case os.IsPermission(err), errors.Is(err, domain.ErrPermissionDenied):
		return domain.NewRemoteError(op, p, http.StatusForbidden, nil)
	case os.IsExist(err):
		return domain.NewRemoteError(op, p, http.StatusMethodNotAllowed, nil)
	}

	return &domain.RemoteError{Op: op, Path: p, Err: err}
}
