package testutil

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// CreateTestFile writes name (which may contain slashes) under dir and
// returns its path
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	p := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, content, 0644))
	return p
}

// PNG returns a width x height PNG of a single colour, the smallest thing
// the thumbnail decoder accepts as a photo
func PNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(width, height, c), imaging.PNG))
	return buf.Bytes()
}

// AssertEventually polls condition every 5ms and fails the test if it is
// still false after timeout
func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msgAndArgs ...any) {
	t.Helper()
	require.Eventually(t, condition, timeout, 5*time.Millisecond, msgAndArgs...)
}
