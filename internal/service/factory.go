package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Ning0612/Cloudbrowse/internal/adapter"
	"github.com/Ning0612/Cloudbrowse/internal/adapter/gdrive"
	"github.com/Ning0612/Cloudbrowse/internal/adapter/local"
	"github.com/Ning0612/Cloudbrowse/internal/adapter/s3"
	"github.com/Ning0612/Cloudbrowse/internal/adapter/webdav"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

// Factory creates adapters for every supported remote type
type Factory struct{}

var _ adapter.AdapterFactory = Factory{}

// Create returns an adapter for the given remote
func (Factory) Create(ctx context.Context, remote domain.Remote) (adapter.Adapter, error) {
	var (
		a   adapter.Adapter
		err error
	)
	switch remote.Type {
	case domain.RemoteLocal:
		a, err = local.New(remote.Root)
	case domain.RemoteWebDAV:
		a, err = webdav.New(ctx, remote)
	case domain.RemoteGDrive:
		a, err = gdrive.New(ctx, remote)
	case domain.RemoteS3:
		a, err = s3.New(ctx, remote)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrRemoteTypeNotFound, remote.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", remote.Type, err)
	}
	return a, nil
}

// Supports returns true if the remote type has an adapter
func (Factory) Supports(remoteType domain.RemoteType) bool {
	return remoteType.IsValid()
}

// RemoteKey identifies a remote in the snapshot cache. Credentials are
// never part of the key.
func RemoteKey(remote domain.Remote) string {
	var b strings.Builder
	b.WriteString(string(remote.Type))
	b.WriteString("://")
	switch remote.Type {
	case domain.RemoteS3:
		b.WriteString(strings.TrimSuffix(withoutUserinfo(remote.URL), "/"))
		b.WriteString("/")
		b.WriteString(remote.Option("bucket", ""))
	case domain.RemoteWebDAV:
		b.WriteString(strings.TrimSuffix(withoutUserinfo(remote.URL), "/"))
	case domain.RemoteGDrive:
		b.WriteString(remote.Option("client_id", ""))
	}
	b.WriteString("/")
	b.WriteString(strings.Trim(remote.Root, "/"))
	return b.String()
}

// withoutUserinfo drops user:pass@ from raw. Unparseable input keeps only
// what follows the last '@' so a password never reaches the cache.
func withoutUserinfo(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.LastIndex(raw, "@"); i >= 0 {
			return raw[i+1:]
		}
		return raw
	}
	u.User = nil
	return u.String()
}
