package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"actionlog/internal/action"
	"actionlog/internal/document"
	"actionlog/internal/statecodec"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	st, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleState() *statecodec.State {
	a := action.NewEntry(2, "Select", document.MustParse(`{"_obj":"select","_target":[{"_ref":"layer","_name":"Bg"}]}`), true)
	b := action.NewEntry(1, "Hide", document.MustParse(`{"_obj":"hide","null":[{"_ref":"layer","_enum":"ordinal","_value":"targetEnum"}]}`), false)
	b.PlayReplies = []action.PlayReply{
		{Descriptors: []document.Value{document.MustParse(`{"_obj":"hide"}`)}, Time: time.UnixMilli(1700000000000).UTC()},
		{Descriptors: []document.Value{}, Time: time.UnixMilli(1700000000500).UTC()},
	}

	s := statecodec.NewState()
	s.Settings.DecorateSnippets = false
	s.Settings.Capability = "host.run"
	s.Selected = []int{1}
	s.Actions = action.MustCollection(a, b)
	return s
}

func TestNew_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	st, err := New(dir)
	require.NoError(t, err)
	defer st.Close()

	_, err = os.Stat(filepath.Join(dir, DirName, DBName))
	require.NoError(t, err)
	require.Equal(t, dir, st.RootDir())
}

func TestStore_EmptyLoad(t *testing.T) {
	st := openTestStore(t)

	s, err := st.Load(context.Background())
	require.NoError(t, err)
	require.True(t, s.Equal(statecodec.NewState()))
}

func TestStore_SaveLoad(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	orig := sampleState()
	require.NoError(t, st.Save(ctx, orig))

	back, err := st.Load(ctx)
	require.NoError(t, err)
	require.True(t, orig.Equal(back))
	require.Equal(t, []int{2, 1}, back.Actions.IDs(), "log order is kept, not id order")

	n, err := st.CountActions(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestStore_SaveReplaces(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, sampleState()))

	smaller := statecodec.NewState()
	smaller.Actions = action.MustCollection(action.NewEntry(5, "only", document.Null(), true))
	require.NoError(t, st.Save(ctx, smaller))

	back, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{5}, back.Actions.IDs())
	require.Empty(t, back.Selected)
}

func TestStore_Update(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, sampleState()))

	updated, err := st.Update(ctx, func(s *statecodec.State) error {
		next, err := s.Actions.Toggle(2)
		if err != nil {
			return err
		}
		s.Actions = next
		return nil
	})
	require.NoError(t, err)
	e, _ := updated.Actions.Find(2)
	require.False(t, e.Collapsed)

	back, err := st.Load(ctx)
	require.NoError(t, err)
	e, _ = back.Actions.Find(2)
	require.False(t, e.Collapsed)
}

func TestStore_UpdateFailureWritesNothing(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	orig := sampleState()
	require.NoError(t, st.Save(ctx, orig))

	boom := errors.New("boom")
	_, err := st.Update(ctx, func(s *statecodec.State) error {
		s.Actions, _ = action.ClearAll(s.Actions)
		return boom
	})
	require.ErrorIs(t, err, boom)

	back, err := st.Load(ctx)
	require.NoError(t, err)
	require.True(t, orig.Equal(back))
}
