package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

type fakeNode struct {
	kind    domain.EntryKind
	content []byte
	modTime time.Time
}

// FakeRemote is an in-memory remote adapter that records calls and can
// inject failures per operation
type FakeRemote struct {
	mu     sync.Mutex
	nodes  map[string]*fakeNode
	calls  map[string]int
	errors map[string]error

	// ThumbnailHook, when set, replaces the default thumbnail behavior
	ThumbnailHook func(ctx context.Context, e *domain.Entry) (io.ReadCloser, error)

	// ListHook, when set, runs before every List call
	ListHook func(ctx context.Context, path string)
}

// NewFakeRemote creates an empty remote holding only the root directory
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		nodes:  map[string]*fakeNode{"/": {kind: domain.KindDirectory}},
		calls:  make(map[string]int),
		errors: make(map[string]error),
	}
}

// AddDir adds a directory (parents are not created implicitly)
func (f *FakeRemote) AddDir(p string, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[domain.DirPath(p)] = &fakeNode{kind: domain.KindDirectory, modTime: modTime}
}

// AddFile adds a file with content
func (f *FakeRemote) AddFile(p string, content []byte, modTime time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[domain.CleanPath(p)] = &fakeNode{kind: domain.KindFile, content: content, modTime: modTime}
}

// Exists reports whether a file or directory exists at p
func (f *FakeRemote) Exists(p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, key := f.lookup(p)
	return key != ""
}

// SetError makes every call of op fail with err; nil clears it
func (f *FakeRemote) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errors, op)
		return
	}
	f.errors[op] = err
}

// Calls returns how many times op was invoked
func (f *FakeRemote) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeRemote) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errors[op]
}

// lookup returns the node and its key for a path in either form
func (f *FakeRemote) lookup(p string) (*fakeNode, string) {
	if n, ok := f.nodes[domain.CleanPath(p)]; ok {
		return n, domain.CleanPath(p)
	}
	if n, ok := f.nodes[domain.DirPath(p)]; ok {
		return n, domain.DirPath(p)
	}
	return nil, ""
}

func parentOf(key string) string {
	return domain.DirPath(path.Dir(strings.TrimSuffix(key, "/")))
}

// List implements adapter.Adapter
func (f *FakeRemote) List(ctx context.Context, p string) ([]*domain.Entry, error) {
	if f.ListHook != nil {
		f.ListHook(ctx, p)
	}
	if err := f.begin("list"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := domain.DirPath(p)
	if n, ok := f.nodes[dir]; !ok || n.kind != domain.KindDirectory {
		return nil, domain.NewRemoteError("list", dir, http.StatusNotFound, nil)
	}

	var keys []string
	for key := range f.nodes {
		if key != "/" && parentOf(key) == dir {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	entries := make([]*domain.Entry, 0, len(keys))
	for _, key := range keys {
		n := f.nodes[key]
		e := domain.NewEntry("", key, n.kind, int64(len(n.content)), n.modTime)
		if n.kind == domain.KindFile {
			e.ContentType = mimetype.Detect(n.content).String()
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CreateDirectory implements adapter.Adapter
func (f *FakeRemote) CreateDirectory(ctx context.Context, p string) error {
	if err := f.begin("mkdir"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := domain.DirPath(p)
	if n, _ := f.lookup(p); n != nil {
		return domain.NewRemoteError("mkdir", dir, http.StatusMethodNotAllowed, nil)
	}
	if _, ok := f.nodes[parentOf(dir)]; !ok {
		return domain.NewRemoteError("mkdir", dir, http.StatusConflict, nil)
	}
	f.nodes[dir] = &fakeNode{kind: domain.KindDirectory, modTime: time.Now()}
	return nil
}

// Delete implements adapter.Adapter
func (f *FakeRemote) Delete(ctx context.Context, p string) error {
	if err := f.begin("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	n, key := f.lookup(p)
	if n == nil {
		return domain.NewRemoteError("delete", p, http.StatusNotFound, nil)
	}
	for k := range f.nodes {
		if k == key || (n.kind == domain.KindDirectory && strings.HasPrefix(k, key)) {
			delete(f.nodes, k)
		}
	}
	return nil
}

// Move implements adapter.Adapter
func (f *FakeRemote) Move(ctx context.Context, fromPath, toPath string) error {
	if err := f.begin("move"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	n, from := f.lookup(fromPath)
	if n == nil {
		return domain.NewRemoteError("move", fromPath, http.StatusNotFound, nil)
	}
	if existing, _ := f.lookup(toPath); existing != nil {
		return domain.NewRemoteError("move", toPath, http.StatusPreconditionFailed, nil)
	}
	to := domain.CleanPath(toPath)
	if n.kind == domain.KindDirectory {
		to = domain.DirPath(toPath)
	}
	if _, ok := f.nodes[parentOf(to)]; !ok {
		return domain.NewRemoteError("move", toPath, http.StatusConflict, nil)
	}

	moved := make(map[string]*fakeNode)
	for k, v := range f.nodes {
		if k == from || (n.kind == domain.KindDirectory && strings.HasPrefix(k, from)) {
			moved[to+strings.TrimPrefix(k, from)] = v
			delete(f.nodes, k)
		}
	}
	for k, v := range moved {
		f.nodes[k] = v
	}
	return nil
}

// Thumbnail implements adapter.Adapter. Image files are returned as-is;
// everything else is not found.
func (f *FakeRemote) Thumbnail(ctx context.Context, e *domain.Entry, width, height int) (io.ReadCloser, error) {
	if err := f.begin("thumbnail"); err != nil {
		return nil, err
	}
	if f.ThumbnailHook != nil {
		return f.ThumbnailHook(ctx, e)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, _ := f.lookup(e.Path)
	if n == nil || n.kind != domain.KindFile || !strings.HasPrefix(mimetype.Detect(n.content).String(), "image/") {
		return nil, domain.NewRemoteError("thumbnail", e.Path, http.StatusNotFound, nil)
	}
	return io.NopCloser(bytes.NewReader(n.content)), nil
}

// Read implements adapter.Adapter
func (f *FakeRemote) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := f.begin("read"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	n, _ := f.lookup(p)
	if n == nil {
		return nil, domain.NewRemoteError("read", p, http.StatusNotFound, nil)
	}
	if n.kind != domain.KindFile {
		return nil, &domain.RemoteError{Op: "read", Path: p, Err: domain.ErrNotFile}
	}
	return io.NopCloser(bytes.NewReader(n.content)), nil
}

// Write implements adapter.Adapter
func (f *FakeRemote) Write(ctx context.Context, p string, r io.Reader, size int64) error {
	if err := f.begin("write"); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := domain.CleanPath(p)
	if _, ok := f.nodes[parentOf(key)]; !ok {
		return domain.NewRemoteError("write", p, http.StatusConflict, nil)
	}
	f.nodes[key] = &fakeNode{kind: domain.KindFile, content: data, modTime: time.Now()}
	return nil
}

// Close implements adapter.Adapter
func (f *FakeRemote) Close() error {
	return nil
}
