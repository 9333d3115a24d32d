package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/events"
)

// GroupByNameAscending groups entries by first letter, A to Z
func (s *Session) GroupByNameAscending() { s.group(sortpolicy.Name(sortpolicy.Ascending)) }

// GroupByNameDescending groups entries by first letter, Z to A
func (s *Session) GroupByNameDescending() { s.group(sortpolicy.Name(sortpolicy.Descending)) }

// GroupByDateAscending groups entries by modification day, oldest first
func (s *Session) GroupByDateAscending() {
	s.group(sortpolicy.Date(sortpolicy.Ascending, s.locale))
}

// GroupByDateDescending groups entries by modification day, newest first
func (s *Session) GroupByDateDescending() {
	s.group(sortpolicy.Date(sortpolicy.Descending, s.locale))
}

// GroupBySizeAscending groups entries by size unit, smallest first
func (s *Session) GroupBySizeAscending() { s.group(sortpolicy.Size(sortpolicy.Ascending)) }

// GroupBySizeDescending groups entries by size unit, largest first
func (s *Session) GroupBySizeDescending() { s.group(sortpolicy.Size(sortpolicy.Descending)) }

// GroupBy applies an arbitrary policy
func (s *Session) GroupBy(p sortpolicy.Policy) { s.group(p) }

// group regroups with the sorting flag raised, which forces the
// selection mode to none for the duration
func (s *Session) group(p sortpolicy.Policy) {
	s.setSorting(true)
	defer s.setSorting(false)
	s.entries.Arrange(p, nil)
}

func (s *Session) setSorting(on bool) {
	s.mu.Lock()
	s.sorting = on
	mode := s.modeLocked()
	s.mu.Unlock()
	s.publishMode(mode)
}

// SelectionMode returns the interaction mode derived from the sorting and
// selecting flags
func (s *Session) SelectionMode() domain.SelectionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modeLocked()
}

func (s *Session) modeLocked() domain.SelectionMode {
	switch {
	case s.sorting:
		return domain.SelectionNone
	case s.selecting:
		return domain.SelectionMultiple
	}
	return domain.SelectionSingle
}

func (s *Session) publishMode(mode domain.SelectionMode) {
	s.events.Publish(events.Event{Type: events.SelectionModeChanged, Detail: mode.String()})
}

// ToggleSelectionMode flips multi-selection and returns the new mode.
// Leaving multi-selection clears the selection.
func (s *Session) ToggleSelectionMode() domain.SelectionMode {
	s.mu.Lock()
	s.selecting = !s.selecting
	if !s.selecting {
		s.selected = nil
	}
	mode := s.modeLocked()
	s.mu.Unlock()

	s.publishMode(mode)
	return mode
}

// Select marks entry as selected. In single mode it replaces the
// selection; in multiple mode it toggles membership. It returns whether
// the entry is selected afterwards.
func (s *Session) Select(entry *domain.Entry) bool {
	if entry == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.modeLocked() {
	case domain.SelectionSingle:
		s.selected = []*domain.Entry{entry}
		return true
	case domain.SelectionMultiple:
		i := slices.IndexFunc(s.selected, func(e *domain.Entry) bool { return e.Path == entry.Path })
		if i >= 0 {
			s.selected = slices.Delete(s.selected, i, i+1)
			return false
		}
		s.selected = append(s.selected, entry)
		return true
	}
	return false
}

// Selected returns the selected entries in selection order
func (s *Session) Selected() []*domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selected)
}

// ClearSelection empties the selection
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()
}

func (s *Session) deselect(entry *domain.Entry) {
	s.mu.Lock()
	s.selected = slices.DeleteFunc(s.selected, func(e *domain.Entry) bool { return e.Path == entry.Path })
	s.mu.Unlock()
}

// Open enters a directory entry and lists it
func (s *Session) Open(ctx context.Context, entry *domain.Entry) error {
	if entry == nil || !entry.IsDir() {
		return domain.ErrNotDirectory
	}
	return s.navigate(ctx, func(st *domain.PathStack) (bool, error) {
		return true, st.Push(entry)
	})
}

// Up leaves the current directory. At the root it does nothing.
func (s *Session) Up(ctx context.Context) error {
	return s.navigate(ctx, func(st *domain.PathStack) (bool, error) {
		return st.Pop(), nil
	})
}

// NavigateTo truncates the breadcrumb to index and lists that directory
func (s *Session) NavigateTo(ctx context.Context, index int) error {
	return s.navigate(ctx, func(st *domain.PathStack) (bool, error) {
		if !st.TruncateTo(index) {
			return false, fmt.Errorf("breadcrumb index %d out of range [0, %d)", index, st.Len())
		}
		return true, nil
	})
}

func (s *Session) navigate(ctx context.Context, change func(*domain.PathStack) (bool, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.selecting {
		s.mu.Unlock()
		return domain.ErrSelecting
	}
	changed, err := change(s.stack)
	dir := s.stack.CurrentPath()
	depth := s.stack.Len()
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	s.events.Publish(events.Event{Type: events.PathChanged, Path: dir, Count: depth})
	return s.StartListing(ctx)
}

// Path returns a copy of the breadcrumb, root first
func (s *Session) Path() []domain.PathSegment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.Segments()
}

// CurrentPath returns the current directory path, ending in "/"
func (s *Session) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack.CurrentPath()
}
