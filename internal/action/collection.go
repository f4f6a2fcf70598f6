// Package action holds the recorded-action log: entries, their replay
// history, and the bulk operations over the log.
//
// Collection values are immutable from the caller's point of view. Every
// transition returns a new Collection and leaves the receiver untouched, so a
// failed operation can simply discard its result.
package action

import (
	"encoding/json"
	"errors"
	"fmt"

	"actionlog/internal/document"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrDuplicateID   = errors.New("duplicate entry id")
)

// Collection is an ordered log of entries, unique by ID.
type Collection struct {
	entries []Entry
}

// NewCollection validates id uniqueness and keeps the given order.
func NewCollection(entries ...Entry) (Collection, error) {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return Collection{}, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
	}
	return Collection{entries: cloneEntries(entries)}, nil
}

// MustCollection is NewCollection for fixtures.
func MustCollection(entries ...Entry) Collection {
	c, err := NewCollection(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Collection) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in log order.
func (c Collection) Entries() []Entry {
	return cloneEntries(c.entries)
}

func (c Collection) IDs() []int {
	ids := make([]int, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

func (c Collection) Find(id int) (Entry, bool) {
	i := c.index(id)
	if i < 0 {
		return Entry{}, false
	}
	return cloneEntry(c.entries[i]), true
}

// NextID is one past the largest id in the log, or 1 for an empty log.
func (c Collection) NextID() int {
	max := 0
	for _, e := range c.entries {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

// Add appends a freshly captured command with an empty reply history.
func (c Collection) Add(title string, descriptor document.Value, collapsed bool) (Collection, Entry) {
	e := NewEntry(c.NextID(), title, descriptor, collapsed)
	next := c.Entries()
	next = append(next, e)
	return Collection{entries: next}, e
}

// Toggle flips the collapsed flag of one entry.
func (c Collection) Toggle(id int) (Collection, error) {
	return c.update(id, func(e *Entry) {
		e.Collapsed = !e.Collapsed
	})
}

func (c Collection) SetCollapsed(id int, collapsed bool) (Collection, error) {
	return c.update(id, func(e *Entry) {
		e.Collapsed = collapsed
	})
}

// AppendReply records a successful replay at the end of the entry's history.
func (c Collection) AppendReply(id int, reply PlayReply) (Collection, error) {
	return c.update(id, func(e *Entry) {
		e.PlayReplies = append(e.PlayReplies, reply)
	})
}

// Equal compares entries pairwise in order.
func (c Collection) Equal(other Collection) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i := range c.entries {
		if !c.entries[i].Equal(other.entries[i]) {
			return false
		}
	}
	return true
}

func (c Collection) MarshalJSON() ([]byte, error) {
	entries := c.entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

func (c *Collection) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	parsed, err := NewCollection(entries...)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Collection) index(id int) int {
	for i, e := range c.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) update(id int, fn func(*Entry)) (Collection, error) {
	i := c.index(id)
	if i < 0 {
		return c, fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	next := c.Entries()
	fn(&next[i])
	return Collection{entries: next}, nil
}

// filter keeps entries for which keep returns true, preserving order.
func (c Collection) filter(keep func(Entry) bool) (Collection, int) {
	var kept []Entry
	for _, e := range c.entries {
		if keep(e) {
			kept = append(kept, cloneEntry(e))
		}
	}
	return Collection{entries: kept}, len(c.entries) - len(kept)
}

func cloneEntries(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = cloneEntry(e)
	}
	return out
}

func cloneEntry(e Entry) Entry {
	if e.PlayReplies != nil {
		replies := make([]PlayReply, len(e.PlayReplies))
		copy(replies, e.PlayReplies)
		e.PlayReplies = replies
	}
	return e
}
