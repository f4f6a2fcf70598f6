package statecodec

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"actionlog/internal/action"
	"actionlog/internal/document"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []action.Entry {
	a := action.NewEntry(1, "Select layer", document.MustParse(`{"_obj":"select","_target":[{"_ref":"layer","_name":"Bg"}],"makeVisible":false}`), true)
	b := action.NewEntry(4, "Make layer", document.MustParse(`{"_obj":"make","_target":[{"_ref":"layer"}],"layerID":7}`), false)
	b.PlayReplies = []action.PlayReply{
		{Descriptors: []document.Value{document.MustParse(`{"layerID":8}`)}, Time: time.UnixMilli(1700000000001).UTC()},
		{Descriptors: []document.Value{document.MustParse(`{"layerID":9}`), document.Null()}, Time: time.UnixMilli(1700000000002).UTC()},
	}
	return []action.Entry{a, b}
}

func sampleState() *State {
	st := NewState()
	st.Settings.Capability = "PhotoshopAction.batchPlay"
	st.Selected = []int{4}
	st.Actions = action.MustCollection(sampleEntries()...)
	return st
}

func TestCodec_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "exports", "state.json")
	codec := New(FileChannel{Path: path}, nil)

	orig := sampleState()
	require.NoError(t, codec.ExportState(ctx, orig))

	back, err := codec.ImportState(ctx)
	require.NoError(t, err)
	require.NotNil(t, back)
	require.True(t, orig.Equal(back))
}

func TestCodec_ItemsRoundTripReplace(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	require.NoError(t, New(StreamChannel{W: &buf}, nil).ExportItems(ctx, sampleEntries()))

	items, err := New(StreamChannel{R: &buf}, nil).ImportItems(ctx, action.ImportReplace)
	require.NoError(t, err)
	require.Equal(t, action.ImportReplace, items.Kind)

	merged, _, err := action.Merge(action.MustCollection(action.NewEntry(1, "old", document.Null(), true)), items.Entries, items.Kind)
	require.NoError(t, err)
	require.True(t, merged.Equal(action.MustCollection(sampleEntries()...)))
}

func TestCodec_ItemsBlobShape(t *testing.T) {
	data, err := MarshalItems(sampleEntries()[:1])
	require.NoError(t, err)
	require.JSONEq(t, `[{
		"id": 1,
		"title": "Select layer",
		"descriptor": {"_obj":"select","_target":[{"_ref":"layer","_name":"Bg"}],"makeVisible":false},
		"collapsed": true,
		"playReplies": []
	}]`, string(data))
	require.True(t, strings.Index(string(data), `"_obj"`) < strings.Index(string(data), `"makeVisible"`))
}

func TestCodec_Cancelled(t *testing.T) {
	ctx := context.Background()

	st, err := New(FileChannel{}, nil).ImportState(ctx)
	require.NoError(t, err)
	require.Nil(t, st)

	items, err := New(FileChannel{Path: filepath.Join(t.TempDir(), "missing.json")}, nil).ImportItems(ctx, action.ImportAppend)
	require.NoError(t, err)
	require.Nil(t, items)

	items, err = New(StreamChannel{R: strings.NewReader("")}, nil).ImportItems(ctx, action.ImportAppend)
	require.NoError(t, err)
	require.Nil(t, items)

	err = New(FileChannel{}, nil).ExportState(ctx, sampleState())
	require.ErrorIs(t, err, ErrCancelled)
}

func TestCodec_MalformedBlobs(t *testing.T) {
	tests := []struct {
		name  string
		blob  string
		state bool
	}{
		{"state truncated", `{"actions":[`, true},
		{"state given items", `[]`, true},
		{"state newer version", `{"version":99,"actions":[]}`, true},
		{"state duplicate ids", `{"actions":[{"id":1,"title":"a","descriptor":{}},{"id":1,"title":"b","descriptor":{}}]}`, true},
		{"items given state", `{"actions":[]}`, false},
		{"items garbage", `not json`, false},
		{"items duplicate ids", `[{"id":2,"title":"a","descriptor":{}},{"id":2,"title":"b","descriptor":{}}]`, false},
		{"items bad descriptor", `[{"id":2,"title":"a","descriptor":{"a":}}]`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codec := New(StreamChannel{R: strings.NewReader(tc.blob)}, nil)
			var err error
			if tc.state {
				_, err = codec.ImportState(context.Background())
			} else {
				_, err = codec.ImportItems(context.Background(), action.ImportAppend)
			}
			var decErr *DeserializationError
			require.True(t, errors.As(err, &decErr), "got %v", err)
		})
	}
}

func TestUnmarshalState_Defaults(t *testing.T) {
	st, err := UnmarshalState([]byte(`{"actions":[{"id":3,"title":"x","descriptor":{"_obj":"x"},"extra":"ignored"}],"future":{"a":1}}`))
	require.NoError(t, err)
	require.True(t, st.Settings.DecorateSnippets)
	require.Equal(t, []int{}, st.Selected)
	require.Equal(t, []int{3}, st.Actions.IDs())
}

func TestState_SelectedSet(t *testing.T) {
	st := sampleState()
	st.Selected = []int{4, 99}
	set := st.SelectedSet()
	require.True(t, set.Has(4))
	require.False(t, set.Has(99))
}

func TestFileChannel_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	ch := FileChannel{Path: path}
	require.NoError(t, ch.Save(context.Background(), []byte("one")))
	require.NoError(t, ch.Save(context.Background(), []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".actionlog-*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func genEntries() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, 3)).Map(func(replyCounts []int) []action.Entry {
		entries := make([]action.Entry, 0, len(replyCounts))
		for i, n := range replyCounts {
			e := action.NewEntry(i*3+1, "entry", document.Object(
				document.M("_obj", document.String("set")),
				document.M("index", document.Number(float64(i))),
				document.M("html", document.String("<a & b>")),
			), i%2 == 0)
			for r := 0; r < n; r++ {
				e.PlayReplies = append(e.PlayReplies, action.PlayReply{
					Descriptors: []document.Value{document.Object(document.M("r", document.Number(float64(r))))},
					Time:        time.UnixMilli(int64(1700000000000 + r)).UTC(),
				})
			}
			entries = append(entries, e)
		}
		return entries
	})
}

// Property: importState(exportState(s)) == s.
func TestState_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("state survives export and import", prop.ForAll(
		func(entries []action.Entry, decorate bool) bool {
			st := NewState()
			st.Settings.DecorateSnippets = decorate
			st.Actions = action.MustCollection(entries...)

			data, err := MarshalState(st)
			if err != nil {
				return false
			}
			back, err := UnmarshalState(data)
			if err != nil {
				return false
			}
			return st.Equal(back)
		},
		genEntries(),
		gen.Bool(),
	))

	properties.Property("items survive export and replace import", prop.ForAll(
		func(entries []action.Entry) bool {
			data, err := MarshalItems(entries)
			if err != nil {
				return false
			}
			back, err := UnmarshalItems(data)
			if err != nil {
				return false
			}
			merged, _, err := action.Merge(action.Collection{}, back, action.ImportReplace)
			if err != nil {
				return false
			}
			return merged.Equal(action.MustCollection(entries...))
		},
		genEntries(),
	))

	properties.TestingRun(t)
}
