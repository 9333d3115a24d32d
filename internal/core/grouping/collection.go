package grouping

import (
	"slices"
	"sync"

	"github.com/Ning0612/Cloudbrowse/internal/core/sortpolicy"
	"github.com/Ning0612/Cloudbrowse/internal/domain"
	"github.com/Ning0612/Cloudbrowse/internal/events"
)

// Collection is the observable entry list of the current directory and
// its grouped view. Every mutation replaces state wholesale and publishes
// its event after the new state is visible to readers.
type Collection struct {
	mu      sync.RWMutex
	path    string
	entries []*domain.Entry
	groups  []domain.Grouping
	policy  sortpolicy.Policy
	key     KeyFunc

	events *events.Broadcaster
}

// NewCollection creates an empty collection arranged by policy.
// events may be nil.
func NewCollection(policy sortpolicy.Policy, b *events.Broadcaster) *Collection {
	return &Collection{
		policy: policy,
		groups: []domain.Grouping{},
		events: b,
	}
}

// Reset clears the collection and repopulates it with entries listed
// from path, then regroups them with the active policy.
func (c *Collection) Reset(path string, entries []*domain.Entry) {
	c.mu.Lock()
	c.path = path
	c.entries = nil
	c.groups = Arrange(entries, c.policy, c.key)
	c.entries = Flatten(c.groups)
	n := len(c.entries)
	groups := len(c.groups)
	name := c.policy.Name()
	c.mu.Unlock()

	c.publish(events.Event{Type: events.EntriesReset, Path: path, Count: n})
	c.publish(events.Event{Type: events.GroupsChanged, Path: path, Count: groups, Detail: name})
}

// Arrange regroups the current entries with a new policy and key.
// A nil key uses the policy's own key.
func (c *Collection) Arrange(policy sortpolicy.Policy, key KeyFunc) {
	c.mu.Lock()
	c.policy = policy
	c.key = key
	c.groups = Arrange(c.entries, policy, key)
	c.entries = Flatten(c.groups)
	path := c.path
	groups := len(c.groups)
	c.mu.Unlock()

	c.publish(events.Event{Type: events.GroupsChanged, Path: path, Count: groups, Detail: policy.Name()})
}

// Entries returns a snapshot of the entries in display order
func (c *Collection) Entries() []*domain.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.entries)
}

// Snapshot returns the listed directory and its entries together
func (c *Collection) Snapshot() (string, []*domain.Entry) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path, slices.Clone(c.entries)
}

// Groups returns a snapshot of the groups
func (c *Collection) Groups() []domain.Grouping {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Grouping, len(c.groups))
	for i, g := range c.groups {
		out[i] = domain.Grouping{Key: g.Key, Entries: slices.Clone(g.Entries)}
	}
	return out
}

// Policy returns the active sort policy
func (c *Collection) Policy() sortpolicy.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// Path returns the directory the entries were listed from
func (c *Collection) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Len returns the number of entries
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Find returns the entry with the given path or name, or nil
func (c *Collection) Find(nameOrPath string) *domain.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Path == nameOrPath || e.Name == nameOrPath {
			return e
		}
	}
	return nil
}

func (c *Collection) publish(ev events.Event) {
	if c.events != nil {
		c.events.Publish(ev)
	}
}
