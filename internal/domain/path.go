package domain

// RootPath is the path of the remote root directory
const RootPath = "/"

// PathSegment is one level of the navigation breadcrumb
type PathSegment struct {
	// Entry is the directory this segment represents
	Entry *Entry

	// Root marks the first segment of the stack
	Root bool
}

// PathStack is the ordered breadcrumb from the root to the current
// directory. It is never empty: index 0 is always the root segment.
// PathStack is not safe for concurrent use.
type PathStack struct {
	segments []PathSegment
}

// NewPathStack creates a stack holding only the root segment
func NewPathStack() *PathStack {
	root := NewEntry("/", RootPath, KindDirectory, 0, zeroTime)
	return &PathStack{
		segments: []PathSegment{{Entry: root, Root: true}},
	}
}

// Push appends a directory to the stack
func (s *PathStack) Push(e *Entry) error {
	if e == nil || !e.IsDir() {
		return ErrNotDirectory
	}
	s.segments = append(s.segments, PathSegment{Entry: e})
	return nil
}

// Pop removes the current directory unless it is the root.
// Returns false when the stack is already at the root.
func (s *PathStack) Pop() bool {
	if len(s.segments) <= 1 {
		return false
	}
	s.segments[len(s.segments)-1] = PathSegment{}
	s.segments = s.segments[:len(s.segments)-1]
	return true
}

// TruncateTo keeps segments [0, index] and drops the rest
func (s *PathStack) TruncateTo(index int) bool {
	if index < 0 || index >= len(s.segments) {
		return false
	}
	for i := index + 1; i < len(s.segments); i++ {
		s.segments[i] = PathSegment{}
	}
	s.segments = s.segments[:index+1]
	return true
}

// Current returns the segment of the current directory
func (s *PathStack) Current() PathSegment {
	return s.segments[len(s.segments)-1]
}

// CurrentPath returns the current directory path, always ending in "/"
func (s *PathStack) CurrentPath() string {
	cur := s.Current()
	if cur.Entry == nil {
		return RootPath
	}
	return DirPath(cur.Entry.Path)
}

// Len returns the number of segments
func (s *PathStack) Len() int {
	return len(s.segments)
}

// Segments returns a copy of the stack in navigation order
func (s *PathStack) Segments() []PathSegment {
	out := make([]PathSegment, len(s.segments))
	copy(out, s.segments)
	return out
}
