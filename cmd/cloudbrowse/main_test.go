package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ning0612/Cloudbrowse/internal/logger"
	"github.com/Ning0612/Cloudbrowse/internal/report"
	"github.com/Ning0612/Cloudbrowse/internal/session"
	"github.com/Ning0612/Cloudbrowse/internal/settings"
	"github.com/Ning0612/Cloudbrowse/internal/testutil"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/photos/2024/", []string{"photos", "2024"}},
		{"photos//2024", []string{"photos", "2024"}},
		{"/a/./b/../c", []string{"a", "c"}},
		{"/../a", []string{"a"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitPath(tt.in), "splitPath(%q)", tt.in)
	}

	parent, name := splitParent("/photos/cat.jpg")
	assert.Equal(t, "/photos", parent)
	assert.Equal(t, "cat.jpg", name)

	parent, name = splitParent("/")
	assert.Equal(t, "/", parent)
	assert.Empty(t, name)
}

// cliEnv is a local remote plus a config file pointing at it
type cliEnv struct {
	root   string
	cache  string
	config string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{root: t.TempDir(), cache: t.TempDir()}
	env.config = filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`remote:
  type: local
  root: %s
cache:
  dir: %s
thumbnails:
  download: never
network:
  mode: metered
`, env.root, env.cache)
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0644))
	return env
}

// run executes one CLI invocation and returns its combined output
func (env *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", env.config, "--quiet"}, args...))
	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, logger.Shutdown())
	return out.String(), err
}

func TestCLI_ListAndMutate(t *testing.T) {
	env := newCLIEnv(t)
	testutil.CreateTestFile(t, env.root, "apple.txt", []byte("apple"))
	testutil.CreateTestFile(t, env.root, "banana.txt", []byte("banana"))

	out, err := env.run(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "[A]")
	assert.Contains(t, out, "apple.txt")
	assert.Contains(t, out, "[B]")

	out, err = env.run(t, "mkdir", "/docs")
	require.NoError(t, err, out)
	assert.DirExists(t, filepath.Join(env.root, "docs"))

	// Creating it again is declined without a reported error
	_, err = env.run(t, "mkdir", "/docs")
	assert.ErrorIs(t, err, errDeclined)

	_, err = env.run(t, "mv", "/banana.txt", "/docs/banana.txt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.root, "docs", "banana.txt"))

	_, err = env.run(t, "rename", "/docs/banana.txt", "plantain.txt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.root, "docs", "plantain.txt"))

	out, err = env.run(t, "ls", "/docs", "--sort", "size-desc")
	require.NoError(t, err)
	assert.Contains(t, out, "/docs/ (size-desc)")
	assert.Contains(t, out, "plantain.txt")

	_, err = env.run(t, "rm", "/docs")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(env.root, "docs"))

	_, err = env.run(t, "ls", "/missing")
	assert.Error(t, err)
}

func TestCLI_Transfer(t *testing.T) {
	env := newCLIEnv(t)
	content := []byte("the quick brown fox")
	local := testutil.CreateTestFile(t, t.TempDir(), "fox.txt", content)

	out, err := env.run(t, "put", local, "/", "--checksum", "md5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "verified")

	_, err = env.run(t, "put", local)
	assert.Error(t, err, "default strategy fails on a taken name")

	_, err = env.run(t, "put", local, "--on-conflict", "keep-both")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(env.root, "fox (1).txt"))

	out, err = env.run(t, "put", local, "--on-conflict", "skip")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	dst := filepath.Join(t.TempDir(), "copy.txt")
	out, err = env.run(t, "get", "/fox.txt", dst, "--expect", digest)
	require.NoError(t, err, out)
	assert.Contains(t, out, "sha256:"+digest)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = env.run(t, "get", "/fox.txt", filepath.Join(t.TempDir(), "bad.txt"), "--expect", strings.Repeat("0", 64))
	assert.Error(t, err)
}

func TestCLI_OfflineCache(t *testing.T) {
	env := newCLIEnv(t)
	testutil.CreateTestFile(t, env.root, "cached.txt", []byte("x"))

	_, err := env.run(t, "ls")
	require.NoError(t, err)

	// The recorder saves asynchronously; the service waits for it on close
	out, err := env.run(t, "ls", "--offline")
	require.NoError(t, err, out)
	assert.Contains(t, out, "cached")
	assert.Contains(t, out, "cached.txt")

	out, err = env.run(t, "cache", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "/")

	_, err = env.run(t, "ls", "/never-listed", "--offline")
	assert.Error(t, err)

	out, err = env.run(t, "cache", "prune")
	require.NoError(t, err)
	assert.Contains(t, out, "pruned 1 snapshots")
}

func TestCLI_Thumbs(t *testing.T) {
	env := newCLIEnv(t)
	testutil.CreateTestFile(t, env.root, "notes.txt", []byte("plain text"))
	outDir := t.TempDir()

	out, err := env.run(t, "thumbs", "--out", outDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "1 placeholders")

	_, err = env.run(t, "thumbs", "--policy", "sometimes")
	assert.Error(t, err)
}

func TestCLI_MissingConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "ls"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func newTestShell(t *testing.T) (*shell, *testutil.FakeRemote, *bytes.Buffer) {
	t.Helper()
	f := testutil.NewFakeRemote()
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.AddDir("/photos", mod)
	f.AddFile("/photos/cat.jpg", make([]byte, 4096), mod)
	f.AddFile("/readme.md", []byte("hello"), mod)

	sess := session.New(f,
		session.WithReporter(&report.Collector{}),
		session.WithLogger(logger.NullLogger{}),
		session.WithSettings(settings.Static("never")),
	)
	t.Cleanup(func() { _ = sess.Close() })
	require.NoError(t, sess.StartListing(context.Background()))

	var out bytes.Buffer
	return newShell(sess, &out), f, &out
}

func TestShell_Navigation(t *testing.T) {
	sh, _, out := newTestShell(t)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "cd photos"))
	assert.Equal(t, "/photos/", sh.sess.CurrentPath())

	require.NoError(t, sh.exec(ctx, "ls"))
	assert.Contains(t, out.String(), "cat.jpg")

	require.NoError(t, sh.exec(ctx, "up"))
	assert.Equal(t, "/", sh.sess.CurrentPath())

	require.NoError(t, sh.exec(ctx, "cd photos"))
	require.NoError(t, sh.exec(ctx, "crumb 0"))
	assert.Equal(t, "/", sh.sess.CurrentPath())

	assert.Error(t, sh.exec(ctx, "cd readme.md"))
	assert.Error(t, sh.exec(ctx, "cd nowhere"))
	assert.Error(t, sh.exec(ctx, "crumb 5"))
	assert.Error(t, sh.exec(ctx, "bogus"))
	assert.ErrorIs(t, sh.exec(ctx, "quit"), errQuit)
}

func TestShell_SortAndSelect(t *testing.T) {
	sh, f, out := newTestShell(t)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "sort size desc"))
	assert.Equal(t, "size-desc", sh.sess.Policy().Name())
	assert.Error(t, sh.exec(ctx, "sort colour"))

	require.NoError(t, sh.exec(ctx, "select"))
	assert.Contains(t, out.String(), "selection mode multiple")
	require.NoError(t, sh.exec(ctx, "pick readme.md"))
	require.NoError(t, sh.exec(ctx, "selected"))
	assert.Contains(t, out.String(), "/readme.md")

	// Navigation is refused while selecting
	assert.Error(t, sh.exec(ctx, "cd photos"))

	require.NoError(t, sh.exec(ctx, "rm"))
	assert.False(t, f.Exists("/readme.md"))
	assert.Empty(t, sh.sess.Selected())
}

func TestShell_Mutations(t *testing.T) {
	sh, f, _ := newTestShell(t)
	ctx := context.Background()

	require.NoError(t, sh.exec(ctx, "mkdir new folder"))
	assert.True(t, f.Exists("/new folder/"))
	assert.ErrorIs(t, sh.exec(ctx, "mkdir photos"), errDeclined)

	require.NoError(t, sh.exec(ctx, "rename readme.md README.md"))
	assert.True(t, f.Exists("/README.md"))

	require.NoError(t, sh.exec(ctx, "mv README.md /photos/README.md"))
	assert.True(t, f.Exists("/photos/README.md"))

	require.NoError(t, sh.exec(ctx, "rm photos"))
	assert.False(t, f.Exists("/photos/"))
}

func TestShell_Run(t *testing.T) {
	sh, _, out := newTestShell(t)
	err := sh.run(context.Background(), strings.NewReader("pwd\nnope\nquit\nls\n"))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "error: unknown command")
	// Nothing after quit runs
	assert.NotContains(t, out.String(), "readme.md")
}
