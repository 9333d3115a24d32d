package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

const (
	// MimeTypeFolder is the MIME type Drive uses for folders
	MimeTypeFolder = "application/vnd.google-apps.folder"
	// PageSize is the number of entries requested per listing page
	PageSize = 100

	driveRootID = "root"
	entryFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime, thumbnailLink)"
)

// Adapter browses a folder tree of a Google Drive. Drive addresses files by
// ID, so paths are resolved one segment at a time and the IDs cached.
type Adapter struct {
	service *drive.Service
	client  *http.Client // also fetches thumbnail links
	root    string       // "" or "/Photos", never a trailing slash
	ids     *idCache
}

// idCache maps full Drive paths to file IDs
type idCache struct {
	mu  sync.RWMutex
	ids map[string]string
}

func newIDCache() *idCache {
	return &idCache{ids: make(map[string]string)}
}

func (c *idCache) get(p string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[p]
	return id, ok
}

func (c *idCache) set(p, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[p] = id
}

// deleteTree forgets p and every path below it
func (c *idCache) deleteTree(p string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.ids {
		if k == p || strings.HasPrefix(k, p+"/") {
			delete(c.ids, k)
		}
	}
}

// New creates a Google Drive adapter from a remote definition, loading the
// OAuth token saved by "cloudbrowse auth gdrive". The readonly option
// requests the read-only Drive scope.
func New(ctx context.Context, remote domain.Remote) (*Adapter, error) {
	src, err := AuthenticatorFor(remote).TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	return NewWithClient(ctx, oauth2.NewClient(ctx, src), remote.Root)
}

// AuthenticatorFor builds the authenticator described by the remote options
func AuthenticatorFor(remote domain.Remote) *Authenticator {
	return NewAuthenticator(
		remote.Option("client_id", ""),
		remote.Option("client_secret", ""),
		remote.Option("token_path", ""),
		scopeOptions(remote)...,
	)
}

func scopeOptions(remote domain.Remote) []AuthOption {
	if remote.Option("readonly", "false") == "true" {
		return []AuthOption{WithReadOnly()}
	}
	return nil
}

// NewWithClient creates an adapter over an authenticated HTTP client. Extra
// options (such as option.WithEndpoint) go to the Drive service. Missing
// folders of root are created.
func NewWithClient(ctx context.Context, client *http.Client, root string, opts ...option.ClientOption) (*Adapter, error) {
	svc, err := drive.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	a := &Adapter{service: svc, client: client, root: normalizeRoot(root), ids: newIDCache()}
	if _, err := a.walk(ctx, a.root, true); err != nil {
		return nil, fmt.Errorf("failed to resolve root folder %q: %w", a.root, mapError("resolve", a.root, err))
	}
	return a, nil
}

func normalizeRoot(root string) string {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		return ""
	}
	return "/" + root
}

// List returns the entries directly under dirPath, folders first
func (a *Adapter) List(ctx context.Context, dirPath string) ([]*domain.Entry, error) {
	_, folderID, err := a.resolve(ctx, dirPath)
	if err != nil {
		return nil, mapError("list", dirPath, err)
	}

	var entries []*domain.Entry
	err = a.service.Files.List().
		Q(query(folderID)).
		PageSize(PageSize).
		OrderBy("folder,name").
		Fields(entryFields).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				entries = append(entries, entryFromDrive(dirPath, f))
			}
			return nil
		})
	if err != nil {
		return nil, mapError("list", dirPath, err)
	}
	return entries, nil
}

// CreateDirectory creates one folder inside an existing parent
func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	full, err := a.joinPath(dirPath)
	if err != nil {
		return mapError("mkdir", dirPath, err)
	}
	parentID, err := a.walk(ctx, path.Dir(full), false)
	if err != nil {
		return mapError("mkdir", dirPath, err)
	}

	id, err := a.createFolder(ctx, parentID, path.Base(full))
	if err != nil {
		return mapError("mkdir", dirPath, err)
	}
	a.ids.set(full, id)
	return nil
}

// Read streams the content of a file
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	_, id, err := a.resolve(ctx, filePath)
	if err != nil {
		return nil, mapError("read", filePath, err)
	}

	resp, err := a.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, mapError("read", filePath, err)
	}
	return resp.Body, nil
}

// Write uploads r, replacing the content when the file already exists
func (a *Adapter) Write(ctx context.Context, filePath string, r io.Reader, size int64) error {
	full, id, err := a.resolve(ctx, filePath)
	switch {
	case err == nil:
		_, err = a.service.Files.Update(id, &drive.File{Name: path.Base(full)}).Media(r).Context(ctx).Do()
		return mapError("write", filePath, err)
	case !errors.Is(err, domain.ErrNotFound):
		return mapError("write", filePath, err)
	}

	parentID, err := a.walk(ctx, path.Dir(full), false)
	if err != nil {
		return mapError("write", filePath, err)
	}
	created, err := a.service.Files.Create(&drive.File{Name: path.Base(full), Parents: []string{parentID}}).
		Media(r).Fields("id").Context(ctx).Do()
	if err != nil {
		return mapError("write", filePath, err)
	}
	a.ids.set(full, created.Id)
	return nil
}

// Delete removes a file, or a folder with everything inside it. The
// configured root itself cannot be deleted.
func (a *Adapter) Delete(ctx context.Context, p string) error {
	full, id, err := a.resolve(ctx, p)
	if err != nil {
		return mapError("delete", p, err)
	}
	if full == a.root {
		return &domain.RemoteError{Op: "delete", Path: p, Err: domain.ErrPermissionDenied}
	}

	if err := a.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return mapError("delete", p, err)
	}
	a.ids.deleteTree(full)
	return nil
}

// Move renames and reparents in one update
func (a *Adapter) Move(ctx context.Context, fromPath, toPath string) error {
	from, id, err := a.resolve(ctx, fromPath)
	if err != nil {
		return mapError("move", fromPath, err)
	}
	to, err := a.joinPath(toPath)
	if err != nil {
		return mapError("move", toPath, err)
	}

	oldParent, err := a.walk(ctx, path.Dir(from), false)
	if err != nil {
		return mapError("move", fromPath, err)
	}
	newParent, err := a.walk(ctx, path.Dir(to), false)
	if err != nil {
		return mapError("move", toPath, err)
	}
	// Drive allows duplicate names; refuse them so paths stay unambiguous
	if taken, err := a.child(ctx, newParent, path.Base(to), false); err != nil {
		return mapError("move", toPath, err)
	} else if taken != nil {
		return &domain.RemoteError{Op: "move", Path: toPath, Err: domain.ErrAlreadyExists}
	}

	call := a.service.Files.Update(id, &drive.File{Name: path.Base(to)}).Fields("id")
	if oldParent != newParent {
		call = call.AddParents(newParent).RemoveParents(oldParent)
	}
	if _, err := call.Context(ctx).Do(); err != nil {
		return mapError("move", fromPath, err)
	}
	a.ids.deleteTree(from)
	return nil
}

// Thumbnail fetches the preview Drive generated for the entry, sized on the
// server to the larger requested bound
func (a *Adapter) Thumbnail(ctx context.Context, entry *domain.Entry, width, height int) (io.ReadCloser, error) {
	if entry.PreviewURL == "" {
		return nil, domain.NewRemoteError("thumbnail", entry.Path, http.StatusNotFound, nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL(entry.PreviewURL, max(width, height)), nil)
	if err != nil {
		return nil, mapError("thumbnail", entry.Path, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, mapError("thumbnail", entry.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, domain.NewRemoteError("thumbnail", entry.Path, resp.StatusCode, nil)
	}
	return resp.Body, nil
}

func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// joinPath maps a slash-rooted remote path under the adapter root.
// Cleaning a rooted path drops every "..", so the result stays inside.
func (a *Adapter) joinPath(p string) (string, error) {
	if strings.Contains(p, `\`) {
		return "", domain.ErrPermissionDenied
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return a.root, nil
	}
	return a.root + clean, nil
}

// resolve maps a remote path to its full Drive path and file ID
func (a *Adapter) resolve(ctx context.Context, p string) (full, id string, err error) {
	if full, err = a.joinPath(p); err != nil {
		return "", "", err
	}
	id, err = a.walk(ctx, full, false)
	return full, id, err
}

// walk resolves full one segment at a time from the Drive root, reusing
// cached prefixes. With create, missing segments become folders.
func (a *Adapter) walk(ctx context.Context, full string, create bool) (string, error) {
	if id, ok := a.ids.get(full); ok {
		return id, nil
	}

	id := driveRootID
	prefix := ""
	for _, name := range strings.Split(strings.Trim(full, "/"), "/") {
		if name == "" {
			continue
		}
		prefix += "/" + name
		if cached, ok := a.ids.get(prefix); ok {
			id = cached
			continue
		}

		f, err := a.child(ctx, id, name, create)
		if err != nil {
			return "", err
		}
		switch {
		case f != nil:
			id = f.Id
		case create:
			if id, err = a.createFolder(ctx, id, name); err != nil {
				return "", err
			}
		default:
			return "", domain.ErrNotFound
		}
		a.ids.set(prefix, id)
	}
	return id, nil
}

// child looks up name inside a folder, nil when absent
func (a *Adapter) child(ctx context.Context, parentID, name string, folderOnly bool) (*drive.File, error) {
	terms := []string{fmt.Sprintf("name = '%s'", escapeQueryString(name))}
	if folderOnly {
		terms = append(terms, fmt.Sprintf("mimeType = '%s'", MimeTypeFolder))
	}
	list, err := a.service.Files.List().
		Q(query(parentID, terms...)).
		PageSize(1).
		Fields("files(id, mimeType)").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, nil
	}
	return list.Files[0], nil
}

// createFolder refuses a name already used in the parent
func (a *Adapter) createFolder(ctx context.Context, parentID, name string) (string, error) {
	existing, err := a.child(ctx, parentID, name, false)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", domain.NewRemoteError("mkdir", name, http.StatusPreconditionFailed, domain.ErrAlreadyExists)
	}

	created, err := a.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: MimeTypeFolder,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}

// query builds a search over the non-trashed children of a folder
func query(parentID string, terms ...string) string {
	terms = append(terms, fmt.Sprintf("'%s' in parents", parentID), "trashed = false")
	return strings.Join(terms, " and ")
}

// escapeQueryString escapes a literal for a Drive query; backslash first
func escapeQueryString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}

var thumbnailSize = regexp.MustCompile(`=s\d+$`)

// thumbnailURL sets the "=sNNN" size suffix of a Drive thumbnail link
func thumbnailURL(link string, size int) string {
	if size <= 0 {
		return link
	}
	suffix := fmt.Sprintf("=s%d", size)
	if thumbnailSize.MatchString(link) {
		return thumbnailSize.ReplaceAllString(link, suffix)
	}
	return link + suffix
}

func entryFromDrive(dirPath string, f *drive.File) *domain.Entry {
	kind := domain.KindFile
	if f.MimeType == MimeTypeFolder {
		kind = domain.KindDirectory
	}
	var mod time.Time
	if f.ModifiedTime != "" {
		mod, _ = time.Parse(time.RFC3339, f.ModifiedTime)
	}

	e := domain.NewEntry(f.Name, path.Join(domain.CleanPath(dirPath), f.Name), kind, f.Size, mod)
	if kind == domain.KindFile {
		e.ContentType = f.MimeType
	}
	e.PreviewURL = f.ThumbnailLink
	return e
}

// mapError rewrites any failure as a RemoteError for op and p, carrying
// the domain sentinel that matches the Drive status
func mapError(op, p string, err error) error {
	if err == nil {
		return nil
	}

	var re *domain.RemoteError
	if errors.As(err, &re) {
		return &domain.RemoteError{Op: op, Path: p, StatusCode: re.StatusCode, Err: re.Err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		switch code {
		case http.StatusConflict:
			return domain.NewRemoteError(op, p, code, domain.ErrAlreadyExists)
		case http.StatusTooManyRequests:
			return domain.NewRemoteError(op, p, code, fmt.Errorf("rate limit exceeded: %w", err))
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return domain.NewRemoteError(op, p, code, fmt.Errorf("%w: %s", domain.ErrorForStatus(code), apiErr.Message))
		}
		return domain.NewRemoteError(op, p, code, err)
	}

	// "notFound" is the reason string of Drive errors that lost their type
	if errors.Is(err, domain.ErrNotFound) || strings.Contains(err.Error(), "notFound") {
		return domain.NewRemoteError(op, p, http.StatusNotFound, nil)
	}
	return &domain.RemoteError{Op: op, Path: p, Err: err}
}
