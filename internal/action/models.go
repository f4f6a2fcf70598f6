package action

import (
	"encoding/json"
	"time"

	"actionlog/internal/document"
)

// PlayReply is the result of one successful replay of an entry.
type PlayReply struct {
	Descriptors []document.Value
	Time        time.Time
}

// Entry is one recorded host command and the replies it produced so far.
type Entry struct {
	ID          int
	Title       string
	Descriptor  document.Value
	Collapsed   bool
	PlayReplies []PlayReply
}

func NewEntry(id int, title string, descriptor document.Value, collapsed bool) Entry {
	return Entry{
		ID:         id,
		Title:      title,
		Descriptor: descriptor,
		Collapsed:  collapsed,
	}
}

// Equal compares every field, including the full reply history.
func (e Entry) Equal(other Entry) bool {
	if e.ID != other.ID || e.Title != other.Title || e.Collapsed != other.Collapsed {
		return false
	}
	if !e.Descriptor.Equal(other.Descriptor) || len(e.PlayReplies) != len(other.PlayReplies) {
		return false
	}
	for i := range e.PlayReplies {
		if !e.PlayReplies[i].Equal(other.PlayReplies[i]) {
			return false
		}
	}
	return true
}

func (r PlayReply) Equal(other PlayReply) bool {
	return r.Time.Equal(other.Time) && document.EqualAll(r.Descriptors, other.Descriptors)
}

// Wire shapes. Reply times travel as unix milliseconds.

type replyJSON struct {
	Descriptors []document.Value `json:"descriptors"`
	Time        int64            `json:"time"`
}

type entryJSON struct {
	ID          int            `json:"id"`
	Title       string         `json:"title"`
	Descriptor  document.Value `json:"descriptor"`
	Collapsed   bool           `json:"collapsed"`
	PlayReplies []PlayReply    `json:"playReplies"`
}

func (r PlayReply) MarshalJSON() ([]byte, error) {
	descs := r.Descriptors
	if descs == nil {
		descs = []document.Value{}
	}
	return json.Marshal(replyJSON{Descriptors: descs, Time: r.Time.UnixMilli()})
}

func (r *PlayReply) UnmarshalJSON(data []byte) error {
	var raw replyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Descriptors = raw.Descriptors
	r.Time = time.UnixMilli(raw.Time).UTC()
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	replies := e.PlayReplies
	if replies == nil {
		replies = []PlayReply{}
	}
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Title:       e.Title,
		Descriptor:  e.Descriptor,
		Collapsed:   e.Collapsed,
		PlayReplies: replies,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{
		ID:          raw.ID,
		Title:       raw.Title,
		Descriptor:  raw.Descriptor,
		Collapsed:   raw.Collapsed,
		PlayReplies: raw.PlayReplies,
	}
	return nil
}
