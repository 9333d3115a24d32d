package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ning0612/Cloudbrowse/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, DBName)); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestOpen_EmptyDir(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Expected error for empty directory, got nil")
	}
}

func TestSaveAndLoadListing(t *testing.T) {
	s := openTestStore(t)

	mod := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	photo := domain.NewEntry("", "/docs/photo.jpg", domain.KindFile, 2048, mod)
	photo.ContentType = "image/jpeg"
	photo.PreviewURL = "https://example.com/thumb=s220"
	entries := []*domain.Entry{
		domain.NewEntry("", "/docs/archive/", domain.KindDirectory, 0, mod),
		photo,
	}
	listedAt := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	if err := s.SaveListing("webdav:dav.example.com", "/docs", entries, listedAt); err != nil {
		t.Fatalf("SaveListing() error = %v", err)
	}

	snap, err := s.LoadListing("webdav:dav.example.com", "/docs/")
	if err != nil {
		t.Fatalf("LoadListing() error = %v", err)
	}
	if snap == nil {
		t.Fatal("Expected snapshot, got nil")
	}
	if snap.Path != "/docs/" {
		t.Errorf("Path = %q, want /docs/", snap.Path)
	}
	if !snap.ListedAt.Equal(listedAt) {
		t.Errorf("ListedAt = %v, want %v", snap.ListedAt, listedAt)
	}
	if len(snap.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(snap.Entries))
	}

	dir, file := snap.Entries[0], snap.Entries[1]
	if !dir.IsDir() || dir.Path != "/docs/archive/" || dir.Name != "archive" {
		t.Errorf("directory entry = %+v", dir)
	}
	if file.Name != "photo.jpg" || file.Size != 2048 || file.ContentType != "image/jpeg" {
		t.Errorf("file entry = %+v", file)
	}
	if file.PreviewURL != photo.PreviewURL {
		t.Errorf("PreviewURL = %q, want %q", file.PreviewURL, photo.PreviewURL)
	}
	if !file.ModTime.Equal(mod) {
		t.Errorf("ModTime = %v, want %v", file.ModTime, mod)
	}
}

func TestSaveListing_Replaces(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	first := []*domain.Entry{
		domain.NewEntry("", "/a", domain.KindFile, 1, now),
		domain.NewEntry("", "/b", domain.KindFile, 1, now),
	}
	if err := s.SaveListing("local", "/", first, now); err != nil {
		t.Fatal(err)
	}
	second := []*domain.Entry{domain.NewEntry("", "/c", domain.KindFile, 1, now)}
	if err := s.SaveListing("local", "/", second, now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	snap, err := s.LoadListing("local", "/")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].Name != "c" {
		t.Errorf("Expected only entry c after replace, got %d entries", len(snap.Entries))
	}
}

func TestSaveListing_EmptyRemote(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveListing("", "/", nil, time.Now()); err == nil {
		t.Error("Expected error for empty remote key")
	}
}

func TestLoadListing_Missing(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.LoadListing("local", "/nowhere/")
	if err != nil {
		t.Fatalf("LoadListing() error = %v", err)
	}
	if snap != nil {
		t.Errorf("Expected nil snapshot, got %+v", snap)
	}
}

func TestLoadListing_EmptyDirectory(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveListing("local", "/empty/", nil, time.Now()); err != nil {
		t.Fatal(err)
	}

	snap, err := s.LoadListing("local", "/empty/")
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil || len(snap.Entries) != 0 {
		t.Errorf("Expected empty snapshot, got %+v", snap)
	}
}

func TestRecentListingsAndPrune(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := []*domain.Entry{domain.NewEntry("", "/x", domain.KindFile, 1, base)}

	for i, p := range []string{"/old/", "/mid/", "/new/"} {
		if err := s.SaveListing("s3:media", p, entry, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveListing("other", "/new/", nil, base.Add(10*time.Hour)); err != nil {
		t.Fatal(err)
	}

	recent, err := s.RecentListings("s3:media", 2)
	if err != nil {
		t.Fatalf("RecentListings() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(recent))
	}
	if recent[0].Path != "/new/" || recent[1].Path != "/mid/" {
		t.Errorf("Unexpected order: %+v", recent)
	}
	if recent[0].Count != 1 {
		t.Errorf("Count = %d, want 1", recent[0].Count)
	}

	if _, err := s.RecentListings("s3:media", 0); err == nil {
		t.Error("Expected error for non-positive limit")
	}

	n, err := s.Prune(base.Add(90 * time.Minute))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() removed %d, want 2", n)
	}
	if snap, _ := s.LoadListing("s3:media", "/old/"); snap != nil {
		t.Error("Pruned snapshot should be gone")
	}
	if snap, _ := s.LoadListing("s3:media", "/new/"); snap == nil {
		t.Error("Recent snapshot should survive prune")
	}
}
