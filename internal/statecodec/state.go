// Package statecodec serializes the application state, or a subset of its
// recorded actions, to a persistence channel and reads it back.
//
// Two blob shapes exist. A state blob is a JSON object holding the settings,
// the selection and the full action log. An items blob is a JSON array of
// entries. Unknown fields are ignored so newer blobs still load.
package statecodec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"actionlog/internal/action"
)

// FormatVersion is written into every state blob.
const FormatVersion = 1

type Settings struct {
	DecorateSnippets bool   `json:"decorateSnippets"`
	CollapseNew      bool   `json:"collapseNew"`
	Capability       string `json:"capability,omitempty"`
}

// State is everything the tool persists between runs.
type State struct {
	Version  int               `json:"version"`
	Settings Settings          `json:"settings"`
	Selected []int             `json:"selected"`
	Actions  action.Collection `json:"actions"`
}

// NewState returns an empty state with default settings.
func NewState() *State {
	return &State{
		Version:  FormatVersion,
		Settings: Settings{DecorateSnippets: true, CollapseNew: true},
		Selected: []int{},
	}
}

// Equal compares settings, selection and the full action log.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Version != other.Version || s.Settings != other.Settings || len(s.Selected) != len(other.Selected) {
		return false
	}
	for i := range s.Selected {
		if s.Selected[i] != other.Selected[i] {
			return false
		}
	}
	return s.Actions.Equal(other.Actions)
}

// SelectedSet returns the selection restricted to ids still in the log.
func (s *State) SelectedSet() action.IDSet {
	set := action.NewIDSet()
	for _, id := range s.Selected {
		if _, ok := s.Actions.Find(id); ok {
			set[id] = struct{}{}
		}
	}
	return set
}

// DeserializationError reports a blob that could not be turned into a state
// or an item list.
type DeserializationError struct {
	Shape string
	Err   error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode %s blob: %v", e.Shape, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

func MarshalState(s *State) ([]byte, error) {
	out := *s
	out.Version = FormatVersion
	if out.Selected == nil {
		out.Selected = []int{}
	}
	return json.MarshalIndent(out, "", "  ")
}

func MarshalItems(entries []action.Entry) ([]byte, error) {
	if entries == nil {
		entries = []action.Entry{}
	}
	return json.MarshalIndent(entries, "", "  ")
}

// UnmarshalState decodes a state blob. Item blobs are rejected.
func UnmarshalState(data []byte) (*State, error) {
	root := rootShape(data)
	if root != '{' {
		return nil, &DeserializationError{Shape: "state", Err: fmt.Errorf("expected a JSON object, found %s", describeRoot(root))}
	}

	// Missing settings fall back to defaults rather than zero values.
	st := NewState()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, &DeserializationError{Shape: "state", Err: err}
	}
	if st.Version > FormatVersion {
		return nil, &DeserializationError{Shape: "state", Err: fmt.Errorf("format version %d is newer than supported %d", st.Version, FormatVersion)}
	}
	st.Version = FormatVersion
	if st.Selected == nil {
		st.Selected = []int{}
	}
	return st, nil
}

// UnmarshalItems decodes an items blob and validates id uniqueness.
func UnmarshalItems(data []byte) ([]action.Entry, error) {
	root := rootShape(data)
	if root != '[' {
		return nil, &DeserializationError{Shape: "items", Err: fmt.Errorf("expected a JSON array, found %s", describeRoot(root))}
	}

	var entries []action.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &DeserializationError{Shape: "items", Err: err}
	}
	if _, err := action.NewCollection(entries...); err != nil {
		return nil, &DeserializationError{Shape: "items", Err: err}
	}
	if entries == nil {
		entries = []action.Entry{}
	}
	return entries, nil
}

func rootShape(data []byte) byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func describeRoot(b byte) string {
	switch b {
	case 0:
		return "empty input"
	case '[':
		return "an array"
	case '{':
		return "an object"
	default:
		return fmt.Sprintf("%q", b)
	}
}
