package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/testutil"
)

func TestDecode_FitsWithinBound(t *testing.T) {
	data := testutil.PNG(t, 480, 240, color.White)

	img, err := Decode(bytes.NewReader(data), DefaultSize, DefaultSize)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestDecode_SmallImageUnchanged(t *testing.T) {
	data := testutil.PNG(t, 32, 16, color.Black)

	img, err := Decode(bytes.NewReader(data), DefaultSize, DefaultSize)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())
}

func TestDecode_RejectsNonImage(t *testing.T) {
	_, err := Decode(strings.NewReader("%PDF-1.7 not an image"), DefaultSize, DefaultSize)
	assert.Error(t, err)
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(120, 120)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func setupRemote(t *testing.T) (*testutil.FakeRemote, []*domain.Entry) {
	t.Helper()

	remote := testutil.NewFakeRemote()
	now := time.Now()
	remote.AddFile("/a.png", testutil.PNG(t, 200, 200, color.White), now)
	remote.AddFile("/b.txt", []byte("plain text"), now)
	remote.AddFile("/c.png", testutil.PNG(t, 10, 10, color.Black), now)

	entries, err := remote.List(context.Background(), "/")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	return remote, entries
}

func TestPrefetcher_AssignsThumbnailsAndPlaceholders(t *testing.T) {
	remote, entries := setupRemote(t)

	var notified []string
	p := New(remote, WithNotify(func(e *domain.Entry) {
		notified = append(notified, e.Name)
	}))

	res := p.Run(context.Background(), entries)

	assert.Equal(t, Result{Fetched: 2, Placeholders: 1}, res)
	assert.Equal(t, []string{"a.png", "b.txt", "c.png"}, notified, "entries are processed in list order")

	require.NotNil(t, entries[0].Thumbnail())
	assert.False(t, entries[0].Thumbnail().Placeholder)
	assert.Equal(t, 120, entries[0].Thumbnail().Image.Bounds().Dx())

	require.NotNil(t, entries[1].Thumbnail())
	assert.True(t, entries[1].Thumbnail().Placeholder)
	assert.Same(t, p.Placeholder(), entries[1].Thumbnail())

	assert.Equal(t, 3, remote.Calls("thumbnail"))
}

func TestPrefetcher_FailureDoesNotStopLoop(t *testing.T) {
	remote, entries := setupRemote(t)
	remote.ThumbnailHook = func(ctx context.Context, e *domain.Entry) (io.ReadCloser, error) {
		if e.Name == "a.png" {
			return nil, domain.NewRemoteError("thumbnail", e.Path, http.StatusInternalServerError, nil)
		}
		if e.Name == "b.txt" {
			return io.NopCloser(strings.NewReader("garbage")), nil
		}
		return io.NopCloser(bytes.NewReader(testutil.PNG(t, 8, 8, color.White))), nil
	}

	res := New(remote).Run(context.Background(), entries)

	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 2, res.Placeholders)
	assert.False(t, entries[2].Thumbnail().Placeholder)
}

func TestPrefetcher_StopsWhenCancelled(t *testing.T) {
	remote, entries := setupRemote(t)

	ctx, cancel := context.WithCancel(context.Background())
	remote.ThumbnailHook = func(_ context.Context, e *domain.Entry) (io.ReadCloser, error) {
		if e.Name == "b.txt" {
			// Cancellation arrives while the second fetch is in flight
			cancel()
		}
		return io.NopCloser(bytes.NewReader(testutil.PNG(t, 8, 8, color.White))), nil
	}

	res := New(remote).Run(ctx, entries)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
	assert.NotNil(t, entries[1].Thumbnail(), "in-flight entry completes")
	assert.Nil(t, entries[2].Thumbnail(), "later entries stay unset")
	assert.Equal(t, 2, remote.Calls("thumbnail"))
}

func TestPrefetcher_InterruptedFetchLeavesEntryUnset(t *testing.T) {
	remote, entries := setupRemote(t)

	ctx, cancel := context.WithCancel(context.Background())
	remote.ThumbnailHook = func(ctx context.Context, e *domain.Entry) (io.ReadCloser, error) {
		cancel()
		return nil, ctx.Err()
	}

	res := New(remote).Run(ctx, entries)

	assert.True(t, res.Cancelled)
	assert.Equal(t, 3, res.Skipped)
	for _, e := range entries {
		assert.Nil(t, e.Thumbnail())
	}
}

func TestPrefetcher_AlreadyCancelled(t *testing.T) {
	remote, entries := setupRemote(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(remote).Run(ctx, entries)

	assert.Equal(t, Result{Skipped: 3, Cancelled: true}, res)
	assert.Equal(t, 0, remote.Calls("thumbnail"))
}

func TestPrefetcher_RecoversDecoderPanic(t *testing.T) {
	remote, entries := setupRemote(t)
	remote.ThumbnailHook = func(ctx context.Context, e *domain.Entry) (io.ReadCloser, error) {
		return panicReader{}, nil
	}

	res := New(remote, WithSize(64, 64)).Run(context.Background(), entries)

	assert.Equal(t, 3, res.Placeholders)
	assert.Equal(t, 64, entries[0].Thumbnail().Image.Bounds().Dx())
}

type panicReader struct{}

func (panicReader) Read([]byte) (int, error) { panic(errors.New("corrupt stream")) }
func (panicReader) Close() error             { return nil }
