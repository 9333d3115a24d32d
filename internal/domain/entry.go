package domain

import (
	"image"
	"path"
	"strings"
	"sync/atomic"
	"time"
)

// EntryKind represents the type of a remote filesystem object
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
)

// String returns the string representation of the kind
func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	default:
		return "file"
	}
}

// Thumbnail is a decoded preview image attached to an entry
type Thumbnail struct {
	Image image.Image

	// Placeholder marks the "not found" image assigned when the
	// remote could not supply a preview
	Placeholder bool
}

// Entry represents one file or directory returned by the remote service.
// Entries are replaced wholesale on every listing; only the thumbnail
// slot is assigned after construction.
type Entry struct {
	// Name is the last path element
	Name string

	// Path is the absolute remote path and the identity of the entry.
	// Directory paths carry a trailing slash.
	Path string

	// ContentType is the MIME type reported by the remote (empty for directories)
	ContentType string

	// Kind indicates if this is a file or a directory
	Kind EntryKind

	// Size in bytes (0 for directories)
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// PreviewURL is a remote-provided preview location, if any
	PreviewURL string

	thumbnail atomic.Pointer[Thumbnail]
}

// NewEntry creates an entry and normalizes its path for its kind
func NewEntry(name, p string, kind EntryKind, size int64, modTime time.Time) *Entry {
	e := &Entry{
		Name:    name,
		Kind:    kind,
		Size:    size,
		ModTime: modTime,
	}
	if kind == KindDirectory {
		e.Path = DirPath(p)
	} else {
		e.Path = CleanPath(p)
	}
	if e.Name == "" {
		e.Name = path.Base(strings.TrimSuffix(e.Path, "/"))
	}
	return e
}

// IsDir returns true if this is a directory
func (e *Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// IsFile returns true if this is a regular file
func (e *Entry) IsFile() bool {
	return e.Kind == KindFile
}

// Thumbnail returns the assigned preview, or nil when none has been set
func (e *Entry) Thumbnail() *Thumbnail {
	return e.thumbnail.Load()
}

// SetThumbnail assigns the preview image
func (e *Entry) SetThumbnail(t *Thumbnail) {
	e.thumbnail.Store(t)
}

// ParentPath returns the directory path holding this entry, with a trailing slash
func (e *Entry) ParentPath() string {
	return DirPath(path.Dir(strings.TrimSuffix(e.Path, "/")))
}

// DeletePath returns the path used to delete this entry: directories are
// addressed by their own path, files by parent path plus name.
func (e *Entry) DeletePath() string {
	if e.IsDir() {
		return e.Path
	}
	return strings.TrimSuffix(e.ParentPath(), "/") + "/" + e.Name
}

// CleanPath returns a slash-rooted, cleaned path without a trailing slash
// (except for the root itself)
func CleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// DirPath returns a slash-rooted, cleaned path that ends with a slash
func DirPath(p string) string {
	p = CleanPath(p)
	if p == "/" {
		return p
	}
	return p + "/"
}
