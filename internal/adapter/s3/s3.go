// Package s3 implements the remote adapter over an S3-compatible object
// store. Directories are emulated with "name/" marker objects and common
// prefixes.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

const directoryContentType = "application/x-directory"

// Config holds the connection settings derived from a remote definition
type Config struct {
	Endpoint    string
	AccessKeyID string
	SecretKey   string
	Token       string
	BucketName  string
	Prefix      string
	Region      string
	Secure      bool
}

// NewConfig builds the connection settings. The remote URL names the
// endpoint ("https://play.min.io" or a bare host); the bucket comes from
// the "bucket" option or the first URL path element.
func NewConfig(remote domain.Remote) (*Config, error) {
	cfg := &Config{
		AccessKeyID: remote.Username,
		SecretKey:   remote.Password,
		Token:       remote.Option("token", ""),
		Region:      remote.Option("region", "us-east-1"),
		Prefix:      strings.Trim(remote.Root, "/"),
	}

	raw := remote.URL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 url: %v", domain.ErrConfigInvalid, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: s3 url %q has no host", domain.ErrConfigInvalid, remote.URL)
	}
	cfg.Endpoint = u.Host
	cfg.Secure = u.Scheme == "https"
	if v := remote.Option("secure", ""); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: s3 secure option: %v", domain.ErrConfigInvalid, err)
		}
		cfg.Secure = secure
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	cfg.BucketName = remote.Option("bucket", parts[0])
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("%w: s3 remote needs a bucket", domain.ErrConfigInvalid)
	}
	if cfg.Prefix == "" && len(parts) > 1 && remote.Option("bucket", "") == "" {
		cfg.Prefix = strings.Trim(parts[1], "/")
	}

	return cfg, nil
}

// Adapter implements the adapter.Adapter interface for S3 buckets
type Adapter struct {
	client *minio.Client
	cfg    *Config
}

// New connects to the bucket described by remote
func New(ctx context.Context, remote domain.Remote) (*Adapter, error) {
	cfg, err := NewConfig(remote)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretKey, cfg.Token),
		Region: cfg.Region,
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	ok, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, mapError("connect", "/", err)
	}
	if !ok {
		return nil, domain.NewRemoteError("connect", cfg.BucketName, http.StatusNotFound, nil)
	}

	return &Adapter{client: client, cfg: cfg}, nil
}

// objectKey maps a slash-rooted remote path to an object key (no leading
// slash, no trailing slash; "" is the bucket root)
func (a *Adapter) objectKey(p string) string {
	return strings.Trim(path.Join(a.cfg.Prefix, domain.CleanPath(p)), "/")
}

// dirPrefix returns the listing prefix for a directory path
func (a *Adapter) dirPrefix(p string) string {
	key := a.objectKey(p)
	if key == "" {
		return ""
	}
	return key + "/"
}

// List returns the objects and common prefixes directly under a directory
func (a *Adapter) List(ctx context.Context, dirPath string) ([]*domain.Entry, error) {
	prefix := a.dirPrefix(dirPath)
	base := domain.CleanPath(dirPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var entries []*domain.Entry
	found := prefix == ""
	for obj := range a.client.ListObjects(ctx, a.cfg.BucketName, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, mapError("list", dirPath, obj.Err)
		}
		found = true
		if obj.Key == prefix {
			continue // directory marker
		}

		name := strings.TrimSuffix(strings.TrimPrefix(obj.Key, prefix), "/")
		entryPath := path.Join(base, name)
		if strings.HasSuffix(obj.Key, "/") {
			entries = append(entries, domain.NewEntry(name, entryPath, domain.KindDirectory, 0, obj.LastModified))
			continue
		}

		e := domain.NewEntry(name, entryPath, domain.KindFile, obj.Size, obj.LastModified)
		e.ContentType = obj.ContentType
		if e.ContentType == "" {
			e.ContentType = mime.TypeByExtension(path.Ext(name))
		}
		entries = append(entries, e)
	}

	if !found {
		return nil, domain.NewRemoteError("list", dirPath, http.StatusNotFound, nil)
	}
	return entries, nil
}

// exists reports whether a file or directory (marker or any object under
// the prefix) lives at p
func (a *Adapter) exists(ctx context.Context, p string) (isDir bool, ok bool, err error) {
	key := a.objectKey(p)
	if key == "" {
		return true, true, nil
	}

	// Stops the listing goroutine when we return early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := a.client.StatObject(ctx, a.cfg.BucketName, key, minio.StatObjectOptions{}); err == nil {
		return false, true, nil
	} else if minio.ToErrorResponse(err).StatusCode != http.StatusNotFound {
		return false, false, err
	}

	for obj := range a.client.ListObjects(ctx, a.cfg.BucketName, minio.ListObjectsOptions{Prefix: key + "/", MaxKeys: 1}) {
		if obj.Err != nil {
			return false, false, obj.Err
		}
		return true, true, nil
	}
	return false, false, nil
}

// CreateDirectory writes a directory marker object
func (a *Adapter) CreateDirectory(ctx context.Context, dirPath string) error {
	_, ok, err := a.exists(ctx, dirPath)
	if err != nil {
		return mapError("mkdir", dirPath, err)
	}
	if ok {
		return domain.NewRemoteError("mkdir", dirPath, http.StatusMethodNotAllowed, nil)
	}

	parent := path.Dir(domain.CleanPath(dirPath))
	if isDir, ok, err := a.exists(ctx, parent); err != nil {
		return mapError("mkdir", dirPath, err)
	} else if !ok || !isDir {
		return domain.NewRemoteError("mkdir", dirPath, http.StatusConflict, nil)
	}

	_, err = a.client.PutObject(ctx, a.cfg.BucketName, a.dirPrefix(dirPath), bytes.NewReader(nil), 0,
		minio.PutObjectOptions{ContentType: directoryContentType})
	return mapError("mkdir", dirPath, err)
}

// Delete removes an object, or every object under a directory prefix
func (a *Adapter) Delete(ctx context.Context, p string) error {
	if a.objectKey(p) == a.objectKey("/") {
		return &domain.RemoteError{Op: "delete", Path: p, Err: domain.ErrPermissionDenied}
	}

	isDir, ok, err := a.exists(ctx, p)
	if err != nil {
		return mapError("delete", p, err)
	}
	if !ok {
		return domain.NewRemoteError("delete", p, http.StatusNotFound, nil)
	}

	if !isDir {
		return mapError("delete", p, a.client.RemoveObject(ctx, a.cfg.BucketName, a.objectKey(p), minio.RemoveObjectOptions{}))
	}

	objects := a.client.ListObjects(ctx, a.cfg.BucketName, minio.ListObjectsOptions{
		Prefix:    a.dirPrefix(p),
		Recursive: true,
	})
	var firstErr error
	for rErr := range a.client.RemoveObjects(ctx, a.cfg.BucketName, objects, minio.RemoveObjectsOptions{}) {
		if firstErr == nil {
			firstErr = rErr.Err
		}
	}
	return mapError("delete", p, firstErr)
}

// Move copies every affected object to the new key and removes the source
func (a *Adapter) Move(ctx context.Context, fromPath, toPath string) error {
	isDir, ok, err := a.exists(ctx, fromPath)
	if err != nil {
		return mapError("move", fromPath, err)
	}
	if !ok {
		return domain.NewRemoteError("move", fromPath, http.StatusNotFound, nil)
	}
	if _, taken, err := a.exists(ctx, toPath); err != nil {
		return mapError("move", toPath, err)
	} else if taken {
		return domain.NewRemoteError("move", toPath, http.StatusPreconditionFailed, nil)
	}

	if !isDir {
		return a.moveObject(ctx, a.objectKey(fromPath), a.objectKey(toPath), fromPath)
	}

	from, to := a.dirPrefix(fromPath), a.dirPrefix(toPath)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range a.client.ListObjects(ctx, a.cfg.BucketName, minio.ListObjectsOptions{Prefix: from, Recursive: true}) {
		if obj.Err != nil {
			return mapError("move", fromPath, obj.Err)
		}
		if err := a.moveObject(ctx, obj.Key, to+strings.TrimPrefix(obj.Key, from), fromPath); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) moveObject(ctx context.Context, fromKey, toKey, p string) error {
	_, err := a.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: a.cfg.BucketName, Object: toKey},
		minio.CopySrcOptions{Bucket: a.cfg.BucketName, Object: fromKey},
	)
	if err != nil {
		return mapError("move", p, err)
	}
	return mapError("move", p, a.client.RemoveObject(ctx, a.cfg.BucketName, fromKey, minio.RemoveObjectOptions{}))
}

// Thumbnail streams image objects as their own preview
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

// Read opens an object for reading
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	key := a.objectKey(filePath)
	// GetObject is lazy; stat first so a missing key fails here
	if _, err := a.client.StatObject(ctx, a.cfg.BucketName, key, minio.StatObjectOptions{}); err != nil {
		return nil, mapError("read", filePath, err)
	}
	obj, err := a.client.GetObject(ctx, a.cfg.BucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError("read", filePath, err)
	}
	return obj, nil
}

// Write uploads an object; size may be -1 when unknown
func (a *Adapter) Write(ctx context.Context, filePath string, r io.Reader, size int64) error {
	opts := minio.PutObjectOptions{ContentType: mime.TypeByExtension(path.Ext(filePath))}
	_, err := a.client.PutObject(ctx, a.cfg.BucketName, a.objectKey(filePath), r, size, opts)
	return mapError("write", filePath, err)
}

// Close releases any resources
func (a *Adapter) Close() error {
	return nil
}

// mapError converts minio error responses to remote errors
func mapError(op, p string, err error) error {
	if err == nil {
		return nil
	}

	var re *domain.RemoteError
	if errors.As(err, &re) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return domain.NewRemoteError(op, p, http.StatusNotFound, nil)
	case "AccessDenied":
		return domain.NewRemoteError(op, p, http.StatusForbidden, nil)
	case "InvalidObjectName", "InvalidArgument":
		return domain.NewRemoteError(op, p, http.StatusBadRequest, nil)
	}
	if resp.StatusCode != 0 {
		return domain.NewRemoteError(op, p, resp.StatusCode, fmt.Errorf("%w: %s", domain.ErrorForStatus(resp.StatusCode), resp.Message))
	}

	return &domain.RemoteError{Op: op, Path: p, Err: err}
}
