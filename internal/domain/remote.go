package domain

// RemoteType identifies the storage backend type
type RemoteType string

const (
	RemoteWebDAV RemoteType = "webdav"
	RemoteGDrive RemoteType = "gdrive"
	RemoteS3     RemoteType = "s3"
	RemoteLocal  RemoteType = "local"
)

// IsValid checks if the remote type is a known value
func (t RemoteType) IsValid() bool {
	switch t {
	case RemoteWebDAV, RemoteGDrive, RemoteS3, RemoteLocal:
		return true
	}
	return false
}

// Remote defines a storage backend configuration
type Remote struct {
	// Type identifies the backend
	Type RemoteType `mapstructure:"type"`

	// URL is the server address (webdav base URL, s3 endpoint)
	URL string `mapstructure:"url"`

	// Username for basic auth (webdav) or access key (s3)
	Username string `mapstructure:"username"`

	// Password for basic auth (webdav) or secret key (s3)
	Password string `mapstructure:"password"`

	// Root path within the backend; local root directory for "local"
	Root string `mapstructure:"root"`

	// Options holds backend-specific settings
	// (gdrive: client_id, client_secret, token_path; s3: bucket, region, secure)
	Options map[string]string `mapstructure:"options"`
}

// Option returns a backend option or def when unset
func (r Remote) Option(key, def string) string {
	if v, ok := r.Options[key]; ok && v != "" {
		return v
	}
	return def
}
