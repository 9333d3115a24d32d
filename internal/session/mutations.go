package session

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/metrics"
	"github.com/Ning0612/Cloudbrowse/internal/progress"
)

// childPath joins a name onto the current directory. Names containing a
// separator are rejected as a bad request.
func (s *Session) childPath(op, name string) (string, error) {
	s.mu.Lock()
	dir := s.stack.CurrentPath()
	s.mu.Unlock()

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", domain.NewRemoteError(op, dir+name, http.StatusBadRequest, nil)
	}
	return dir + name, nil
}

// CreateDirectory creates name in the current directory and re-lists on
// success. Bad-request and already-exists failures return false silently;
// other failures are reported.
func (s *Session) CreateDirectory(ctx context.Context, name string) bool {
	p, err := s.childPath("mkdir", name)
	if err == nil {
		err = s.remote.CreateDirectory(ctx, p)
		metrics.RecordRemoteCall("mkdir", err)
	}
	if err != nil {
		s.fail("mkdir", p, err, true)
		return false
	}

	s.log.Info("directory created", "path", p)
	s.relist(ctx)
	return true
}

// DeleteResource deletes entry and re-lists exactly once, whatever the
// outcome of the delete.
func (s *Session) DeleteResource(ctx context.Context, entry *domain.Entry) bool {
	if entry == nil {
		return false
	}

	p := entry.DeletePath()
	err := s.remote.Delete(ctx, p)
	metrics.RecordRemoteCall("delete", err)
	if err != nil {
		s.fail("delete", p, err, false)
	} else {
		s.log.Info("resource deleted", "path", p)
		s.deselect(entry)
	}

	s.relist(ctx)
	return err == nil
}

// Rename renames oldName to newName inside the current directory
func (s *Session) Rename(ctx context.Context, oldName, newName string) bool {
	from, err := s.childPath("move", oldName)
	if err != nil {
		s.fail("move", from, err, true)
		return false
	}
	to, err := s.childPath("move", newName)
	if err != nil {
		s.fail("move", to, err, true)
		return false
	}
	return s.Move(ctx, from, to)
}

// Move moves a resource between two absolute paths and re-lists on
// success. Failures follow the CreateDirectory policy.
func (s *Session) Move(ctx context.Context, oldPath, newPath string) bool {
	err := s.remote.Move(ctx, oldPath, newPath)
	metrics.RecordRemoteCall("move", err)
	if err != nil {
		s.fail("move", oldPath, err, true)
		return false
	}

	s.log.Info("resource moved", "from", oldPath, "to", newPath)
	s.relist(ctx)
	return true
}

// Download streams a file entry into w
func (s *Session) Download(ctx context.Context, entry *domain.Entry, w io.Writer) bool {
	if entry == nil {
		return false
	}
	if entry.IsDir() {
		s.fail("read", entry.Path, &domain.RemoteError{Op: "read", Path: entry.Path, Err: domain.ErrNotFile}, false)
		return false
	}

	rc, err := s.remote.Read(ctx, entry.Path)
	metrics.RecordRemoteCall("read", err)
	if err != nil {
		s.fail("read", entry.Path, err, false)
		return false
	}
	defer rc.Close()

	s.progress.Start(entry.Path, entry.Size)
	pw := progress.NewWriter(w, s.progress)
	_, err = io.Copy(pw, rc)
	metrics.RecordDownload(pw.N())
	if err != nil {
		s.progress.Error(err)
		s.fail("read", entry.Path, err, false)
		return false
	}
	s.progress.Complete()
	return true
}

// Upload writes r as name into the current directory and re-lists on
// success. size is -1 when unknown.
func (s *Session) Upload(ctx context.Context, name string, r io.Reader, size int64) bool {
	p, err := s.childPath("write", name)
	if err != nil {
		s.fail("write", p, err, false)
		return false
	}

	s.progress.Start(p, size)
	pr := progress.NewReader(r, s.progress)
	err = s.remote.Write(ctx, p, pr, size)
	metrics.RecordRemoteCall("write", err)
	metrics.RecordUpload(pr.N())
	if err != nil {
		s.progress.Error(err)
		s.fail("write", p, err, false)
		return false
	}
	s.progress.Complete()

	s.log.Info("file uploaded", "path", p, "bytes", pr.N())
	s.relist(ctx)
	return true
}
