package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"actionlog/internal/action"
	"actionlog/internal/document"
	"actionlog/internal/statecodec"

	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "1", "20"})
	require.NoError(t, err)
	require.Equal(t, []int{3, 1, 20}, ids)

	_, err = parseIDs([]string{"1", "two"})
	require.ErrorContains(t, err, `invalid action id "two"`)
}

func TestKeepExisting(t *testing.T) {
	c := action.MustCollection(
		action.NewEntry(1, "a", document.Object(), true),
		action.NewEntry(4, "b", document.Object(), true),
	)
	require.Equal(t, []int{4, 1}, keepExisting([]int{4, 2, 1, 9}, c))
	require.Empty(t, keepExisting(nil, c))
}

func TestChannelFor(t *testing.T) {
	var out bytes.Buffer
	exportCmd.SetIn(strings.NewReader(`[]`))
	exportCmd.SetOut(&out)
	t.Cleanup(func() {
		exportCmd.SetIn(nil)
		exportCmd.SetOut(nil)
	})

	ch := channelFor(exportCmd, "-")
	require.IsType(t, statecodec.StreamChannel{}, ch)
	require.NoError(t, ch.Save(context.Background(), []byte(`{}`)))
	require.Equal(t, "{}\n", out.String())

	data, err := ch.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	require.Equal(t, statecodec.FileChannel{Path: "out.json"}, channelFor(exportCmd, "out.json"))
}
