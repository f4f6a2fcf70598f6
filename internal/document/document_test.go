package document

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	src := `{"_obj":"set","_target":[{"_ref":"layer","_enum":"ordinal"}],"to":{"_obj":"layer","opacity":{"_unit":"percentUnit","_value":50}},"b":true,"a":null}`

	v, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())
	require.Equal(t, []string{"_obj", "_target", "to", "b", "a"}, v.Keys())

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, src, string(out))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"truncated object", `{"a":1`},
		{"trailing data", `{"a":1} {}`},
		{"bare word", `select`},
		{"missing colon", `{"a" 1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
		})
	}
}

func TestIndent_ThreeSpaces(t *testing.T) {
	v := Object(
		M("_obj", String("select")),
		M("_target", Array(Object(M("_ref", String("layer")), M("_name", String("<Bg & Fg>"))))),
		M("empty", Array()),
		M("nested", Object()),
		M("n", Number(1.5)),
	)

	got, err := Indent(v, "   ")
	require.NoError(t, err)

	want := `{
   "_obj": "select",
   "_target": [
      {
         "_ref": "layer",
         "_name": "<Bg & Fg>"
      }
   ],
   "empty": [],
   "nested": {},
   "n": 1.5
}`
	require.Equal(t, want, got)
}

func TestValue_Accessors(t *testing.T) {
	v := MustParse(`{"a":[1,"x",false],"b":{"c":null}}`)

	a, ok := v.Get("a")
	require.True(t, ok)
	require.Equal(t, 3, a.Len())

	items := a.Items()
	n, ok := items[0].AsNumber()
	require.True(t, ok)
	require.Equal(t, 1.0, n)
	s, ok := items[1].AsString()
	require.True(t, ok)
	require.Equal(t, "x", s)
	b, ok := items[2].AsBool()
	require.True(t, ok)
	require.False(t, b)

	inner, ok := v.Get("b")
	require.True(t, ok)
	c, ok := inner.Get("c")
	require.True(t, ok)
	require.True(t, c.IsNull())

	_, ok = v.Get("missing")
	require.False(t, ok)
}

func TestValue_WithDoesNotAlias(t *testing.T) {
	orig := Object(M("_obj", String("select")))
	changed := orig.With("_obj", String("delete")).With("extra", Bool(true))

	require.Equal(t, `{"_obj":"select"}`, orig.String())
	require.Equal(t, `{"_obj":"delete","extra":true}`, changed.String())
}

func TestValue_Equal(t *testing.T) {
	require.True(t, MustParse(`{"a":1,"b":[true]}`).Equal(MustParse(`{"a":1,"b":[true]}`)))
	require.False(t, MustParse(`{"a":1,"b":2}`).Equal(MustParse(`{"b":2,"a":1}`)))
	require.False(t, MustParse(`[1,2]`).Equal(MustParse(`[1,2,3]`)))
	require.False(t, MustParse(`"1"`).Equal(MustParse(`1`)))
	require.True(t, Null().Equal(MustParse(`null`)))
}

func TestValue_CloneIsDeep(t *testing.T) {
	orig := MustParse(`{"a":{"b":[1,{"c":2}]}}`)
	clone := orig.Clone()
	require.True(t, orig.Equal(clone))
	require.Equal(t, orig.String(), clone.String())
}

// Property: encoding then parsing any generated document yields an equal document.
func TestValue_RoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("parse(marshal(v)) == v", prop.ForAll(
		func(keys []string, strs []string, nums []int64, flag bool) bool {
			var members []Member
			for i, k := range keys {
				var val Value
				switch i % 4 {
				case 0:
					val = String(pick(strs, i))
				case 1:
					val = Number(float64(pickInt(nums, i)) / 4)
				case 2:
					val = Array(Bool(flag), Null(), String(pick(strs, i+1)))
				default:
					val = Object(M("_obj", String(pick(strs, i))), M("_value", Number(float64(pickInt(nums, i)))))
				}
				members = append(members, M(k, val))
			}
			v := Object(members...)

			data, err := v.MarshalJSON()
			if err != nil {
				return false
			}
			back, err := Parse(data)
			if err != nil {
				return false
			}
			return v.Equal(back)
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.AnyString()),
		gen.SliceOf(gen.Int64Range(-1<<40, 1<<40)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func pick(s []string, i int) string {
	if len(s) == 0 {
		return ""
	}
	return s[i%len(s)]
}

func pickInt(s []int64, i int) int64 {
	if len(s) == 0 {
		return 0
	}
	return s[i%len(s)]
}
