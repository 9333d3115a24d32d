package domain

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry_NormalizesPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		kind     EntryKind
		wantPath string
		wantName string
	}{
		{"file", "docs/a.txt", KindFile, "/docs/a.txt", "a.txt"},
		{"dir without slash", "/docs/photos", KindDirectory, "/docs/photos/", "photos"},
		{"dir with slash", "/docs/photos/", KindDirectory, "/docs/photos/", "photos"},
		{"dotted path", "/docs/../x.bin", KindFile, "/x.bin", "x.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry("", tt.path, tt.kind, 0, time.Time{})
			assert.Equal(t, tt.wantPath, e.Path)
			assert.Equal(t, tt.wantName, e.Name)
		})
	}
}

func TestEntry_DeletePath(t *testing.T) {
	dir := NewEntry("photos", "/docs/photos/", KindDirectory, 0, time.Time{})
	assert.Equal(t, "/docs/photos/", dir.DeletePath())

	file := NewEntry("a.txt", "/docs/a.txt", KindFile, 10, time.Time{})
	assert.Equal(t, "/docs/a.txt", file.DeletePath())

	top := NewEntry("b.txt", "/b.txt", KindFile, 10, time.Time{})
	assert.Equal(t, "/b.txt", top.DeletePath())
}

func TestEntry_Thumbnail(t *testing.T) {
	e := NewEntry("a.png", "/a.png", KindFile, 1, time.Time{})
	assert.Nil(t, e.Thumbnail())

	e.SetThumbnail(&Thumbnail{Placeholder: true})
	require.NotNil(t, e.Thumbnail())
	assert.True(t, e.Thumbnail().Placeholder)
}

func TestPathStack(t *testing.T) {
	s := NewPathStack()
	require.Equal(t, 1, s.Len())
	assert.True(t, s.Current().Root)
	assert.Equal(t, "/", s.CurrentPath())

	// Root cannot be popped
	assert.False(t, s.Pop())

	docs := NewEntry("docs", "/docs", KindDirectory, 0, time.Time{})
	photos := NewEntry("photos", "/docs/photos", KindDirectory, 0, time.Time{})
	require.NoError(t, s.Push(docs))
	require.NoError(t, s.Push(photos))
	assert.Equal(t, "/docs/photos/", s.CurrentPath())

	file := NewEntry("a.txt", "/a.txt", KindFile, 0, time.Time{})
	assert.ErrorIs(t, s.Push(file), ErrNotDirectory)

	assert.True(t, s.TruncateTo(1))
	assert.Equal(t, "/docs/", s.CurrentPath())
	assert.False(t, s.TruncateTo(5))

	assert.True(t, s.Pop())
	assert.Equal(t, "/", s.CurrentPath())

	segs := s.Segments()
	segs[0].Root = false
	assert.True(t, s.Current().Root, "Segments must return a copy")
}

func TestParseDownloadPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    DownloadPolicy
		wantErr bool
	}{
		{"always", DownloadAlways, false},
		{"ALWAYS", DownloadAlways, false},
		{"wifi-only", DownloadWiFiOnly, false},
		{"wifi_only", DownloadWiFiOnly, false},
		{"never", DownloadNever, false},
		{"sometimes", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDownloadPolicy(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDownloadPolicy, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestRemoteError_Severity(t *testing.T) {
	tests := []struct {
		name string
		err  *RemoteError
		want Severity
	}{
		{"bad request status", NewRemoteError("mkdir", "/a", http.StatusBadRequest, nil), SeverityExpected},
		{"already exists", NewRemoteError("mkdir", "/a", http.StatusMethodNotAllowed, nil), SeverityExpected},
		{"not found", NewRemoteError("move", "/a", http.StatusNotFound, nil), SeverityReportable},
		{"server error", NewRemoteError("move", "/a", http.StatusInternalServerError, nil), SeverityReportable},
		{"plain cause", &RemoteError{Op: "list", Path: "/", Err: errors.New("boom")}, SeverityReportable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Severity())
		})
	}
}

func TestRemoteError_Unwrap(t *testing.T) {
	err := NewRemoteError("list", "/missing/", http.StatusNotFound, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "status 404")

	wrapped := AsRemoteError("list", "/", errors.New("dial tcp: refused"))
	assert.Equal(t, "list", wrapped.Op)
	assert.Same(t, err, AsRemoteError("other", "/x", err))
	assert.Nil(t, AsRemoteError("list", "/", nil))
}
