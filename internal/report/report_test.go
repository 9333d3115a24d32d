package report

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/logger"
)

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: slog.LevelDebug, Format: logger.FormatText, Writer: &buf})
	require.NoError(t, err)

	NewLogReporter(l).Report(domain.NewRemoteError("mkdir", "/docs/new", http.StatusForbidden, nil))

	out := buf.String()
	assert.Contains(t, out, "remote operation failed")
	assert.Contains(t, out, "op=mkdir")
	assert.Contains(t, out, "status=403")
}

func TestLogReporter_NilIgnored(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(logger.Config{Level: slog.LevelDebug, Format: logger.FormatText, Writer: &buf})
	require.NoError(t, err)

	NewLogReporter(l).Report(nil)
	assert.Empty(t, buf.String())
}

func TestCollectorAndMulti(t *testing.T) {
	var c Collector
	var seen []string
	m := Multi{&c, Func(func(err *domain.RemoteError) { seen = append(seen, err.Op) })}

	m.Report(domain.NewRemoteError("delete", "/a", http.StatusNotFound, nil))
	m.Report(domain.NewRemoteError("move", "/b", http.StatusInternalServerError, nil))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"delete", "move"}, seen)
	assert.True(t, errors.Is(c.Err(), domain.ErrNotFound))
	assert.True(t, strings.Contains(c.Err().Error(), "status 500"))

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.NoError(t, c.Err())
}
