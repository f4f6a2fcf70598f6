package replay

import (
	"testing"
	"time"

	"actionlog/internal/action"
	"actionlog/internal/document"

	"github.com/stretchr/testify/require"
)

func TestEncodeForTransfer(t *testing.T) {
	desc := document.MustParse(`{"_obj":"select"}`)

	plain, err := EncodeForTransfer(desc, false)
	require.NoError(t, err)
	require.Equal(t, "{\n   \"_obj\": \"select\"\n}", plain)

	snippet, err := EncodeForTransfer(desc, true)
	require.NoError(t, err)
	require.Equal(t, "await PhotoshopAction.batchPlay([\n{\n   \"_obj\": \"select\"\n}\n], {})", snippet)
}

func TestTemplate_CustomCapability(t *testing.T) {
	out, err := Template{Capability: "<Capability>.execute"}.Encode(document.MustParse(`{"_obj":"select"}`), true)
	require.NoError(t, err)
	require.Equal(t, "await <Capability>.execute([\n{\n   \"_obj\": \"select\"\n}\n], {})", out)
}

func TestEncodeForTransfer_KeepsFieldOrder(t *testing.T) {
	desc := document.MustParse(`{"z":1,"a":[true,null],"m":{"y":"1","b":"2"}}`)

	out, err := EncodeForTransfer(desc, false)
	require.NoError(t, err)
	require.Equal(t, `{
   "z": 1,
   "a": [
      true,
      null
   ],
   "m": {
      "y": "1",
      "b": "2"
   }
}`, out)
}

func TestRenderReplies(t *testing.T) {
	e := entry()
	out, err := RenderReplies(e)
	require.NoError(t, err)
	require.Empty(t, out)

	e.PlayReplies = []action.PlayReply{
		{Descriptors: []document.Value{document.MustParse(`{"n":1}`), document.MustParse(`{"ignored":true}`)}, Time: time.UnixMilli(1)},
		{Descriptors: []document.Value{document.MustParse(`{"n":2}`)}, Time: time.UnixMilli(2)},
	}
	out, err = RenderReplies(e)
	require.NoError(t, err)
	require.Equal(t, `[
   {
      "n": 1
   },
   {
      "n": 2
   }
]`, out)
}
