package s3

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name   string
		remote domain.Remote
		want   Config
	}{
		{
			name: "bucket in url path",
			remote: domain.Remote{
				URL:      "https://s3.example.com/photos/archive",
				Username: "AK",
				Password: "SK",
			},
			want: Config{
				Endpoint: "s3.example.com", AccessKeyID: "AK", SecretKey: "SK",
				BucketName: "photos", Prefix: "archive", Region: "us-east-1", Secure: true,
			},
		},
		{
			name: "bare host with options",
			remote: domain.Remote{
				URL:     "localhost:9000",
				Root:    "/users/ann/",
				Options: map[string]string{"bucket": "data", "secure": "false", "region": "eu-west-1"},
			},
			want: Config{
				Endpoint: "localhost:9000", BucketName: "data", Prefix: "users/ann",
				Region: "eu-west-1", Secure: false,
			},
		},
		{
			name:   "plain http",
			remote: domain.Remote{URL: "http://minio:9000/bucket"},
			want:   Config{Endpoint: "minio:9000", BucketName: "bucket", Region: "us-east-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewConfig(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	for _, r := range []domain.Remote{
		{URL: "https://s3.example.com"},
		{URL: "https://s3.example.com/b", Options: map[string]string{"secure": "maybe"}},
		{URL: "https://"},
	} {
		_, err := NewConfig(r)
		assert.ErrorIs(t, err, domain.ErrConfigInvalid, "url %q", r.URL)
	}
}

func TestObjectKey(t *testing.T) {
	a := &Adapter{cfg: &Config{Prefix: "users/ann"}}
	assert.Equal(t, "users/ann", a.objectKey("/"))
	assert.Equal(t, "users/ann/docs/a.txt", a.objectKey("/docs/a.txt"))
	assert.Equal(t, "users/ann/docs/", a.dirPrefix("/docs/"))
	assert.Equal(t, "users/ann/etc", a.objectKey("/../../etc"))

	root := &Adapter{cfg: &Config{}}
	assert.Equal(t, "", root.objectKey("/"))
	assert.Equal(t, "", root.dirPrefix("/"))
	assert.Equal(t, "docs/", root.dirPrefix("/docs"))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		target error
	}{
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, 404, domain.ErrNotFound},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, 403, domain.ErrPermissionDenied},
		{"invalid name", minio.ErrorResponse{Code: "InvalidObjectName", StatusCode: 400}, 400, domain.ErrBadRequest},
		{"unavailable", minio.ErrorResponse{Code: "SlowDown", StatusCode: 503}, 503, domain.ErrNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("list", "/x", tt.err)
			var re *domain.RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.StatusCode)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	assert.NoError(t, mapError("list", "/", nil))

	plain := errors.New("dial tcp: refused")
	assert.ErrorIs(t, mapError("list", "/", plain), plain)

	already := domain.NewRemoteError("mkdir", "/a", http.StatusMethodNotAllowed, nil)
	assert.Same(t, already, mapError("list", "/", already))
}
