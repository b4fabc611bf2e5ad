package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalParams_Order(t *testing.T) {
	lp, err := NewLocalParams("geofilt", P("d", 10), P("key", "d10"))
	require.NoError(t, err)

	assert.Equal(t, "geofilt", lp.Type())
	assert.Equal(t, []Param{{"d", 10}, {"key", "d10"}}, lp.Params())
	assert.Equal(t, 3, lp.Len())
}

func TestNewLocalParams_RepeatedKeyReplacesInPlace(t *testing.T) {
	lp, err := NewLocalParams("", P("ex", "tag"), P("key", "tag"), P("key", "category"))
	require.NoError(t, err)

	assert.Equal(t, []Param{{"ex", "tag"}, {"key", "category"}}, lp.Params())
}

func TestNewLocalParams_InvalidNames(t *testing.T) {
	_, err := NewLocalParams("{dismax}", P("v", "test"))
	require.Error(t, err)
	assert.True(t, IsValueError(err))

	_, err = NewLocalParams("dismax", P("!v", "test"))
	require.Error(t, err)

	_, err = NewLocalParams("", P("has space", 1))
	require.Error(t, err)

	_, err = NewLocalParams("", P("", 1))
	require.Error(t, err)

	assert.Panics(t, func() { MustLocalParams("bad type") })
}

func TestFromMap_TypeKeyAndSortedKeys(t *testing.T) {
	lp, err := FromMap(map[string]any{"type": "join", "to": "manu_id", "from": "id"})
	require.NoError(t, err)

	assert.Equal(t, "join", lp.Type())
	assert.Equal(t, []Param{{"from", "id"}, {"to", "manu_id"}}, lp.Params())

	_, err = FromMap(map[string]any{"type": 3})
	require.Error(t, err)
}

func TestLocalParams_NilSafe(t *testing.T) {
	var lp *LocalParams

	assert.True(t, lp.IsEmpty())
	assert.Equal(t, 0, lp.Len())
	assert.Equal(t, "", lp.Type())
	assert.False(t, lp.Has("key"))
	assert.Nil(t, lp.Params())

	withKey, err := lp.With("key", "k")
	require.NoError(t, err)
	assert.Equal(t, "k", withKey.GetString("key"))
}

func TestLocalParams_WithAndWithout(t *testing.T) {
	base := MustLocalParams("dismax", P("qf", "name"))

	next, err := base.With("v", "$q1")
	require.NoError(t, err)
	assert.False(t, base.Has("v"), "With must not mutate the receiver")
	assert.True(t, next.Has("v"))
	assert.True(t, next.Has("type"))

	typ, ok := next.Get("type")
	require.True(t, ok)
	assert.Equal(t, "dismax", typ)

	retyped, err := next.With("type", "edismax")
	require.NoError(t, err)
	assert.Equal(t, "edismax", retyped.Type())

	_, err = next.With("bad key", 1)
	require.Error(t, err)

	stripped := next.Without("qf").Without("type")
	assert.Equal(t, []Param{{"v", "$q1"}}, stripped.Params())
	assert.Equal(t, "", stripped.Type())
	assert.True(t, next.Has("qf"))
}

func TestLocalParams_Merge(t *testing.T) {
	a := MustLocalParams("dismax", P("bf", "x"), P("v", "$q1"))
	b := MustLocalParams("", P("qf", "name^10 description"), P("v", "$q2"))

	merged := a.Merge(b)
	assert.Equal(t, "dismax", merged.Type())
	assert.Equal(t, []Param{{"bf", "x"}, {"v", "$q2"}, {"qf", "name^10 description"}}, merged.Params())
	assert.Equal(t, "$q1", a.GetString("v"))

	assert.Equal(t, a.Params(), a.Merge(nil).Params())
}

func TestTagAndEx(t *testing.T) {
	tag, err := Tag("cat", "brand")
	require.NoError(t, err)
	assert.Equal(t, "cat,brand", tag.GetString("tag"))

	ex, err := Ex("cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", ex.GetString("ex"))
}

func TestLocalParams_String(t *testing.T) {
	lp := MustLocalParams("frange", P("l", 0), P("u", 5), P("cache", nil))
	assert.Equal(t, "{!frange l=0 u=5 cache}", lp.String())
}
