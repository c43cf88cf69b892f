package natives

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mna/sharo/lang/types"
)

func TestRegisterInstallsAllNatives(t *testing.T) {
	heap := types.NewHeap()
	globals := types.NewTable()
	Register(globals, heap, time.Now())

	for _, name := range []string{"clock", "str", "len", "error", "assert"} {
		v, ok := globals.Get(heap.Intern(name))
		require.True(t, ok, "missing native %q", name)
		require.True(t, v.IsObj())
		_, isNative := v.AsObj().(*types.Native)
		require.True(t, isNative, "%q must be a Native", name)
	}
}

func TestClockReturnsElapsedSeconds(t *testing.T) {
	started := time.Now().Add(-time.Second)
	fn := clockNative(started)
	v, err := fn(nil)
	require.NoError(t, err)
	require.True(t, v.IsFloat())
	require.GreaterOrEqual(t, v.AsFloat(), 1.0)
}

func TestClockRejectsArguments(t *testing.T) {
	fn := clockNative(time.Now())
	_, err := fn([]types.Value{types.Int(1)})
	require.Error(t, err)
}

func TestStrStringifiesAndInterns(t *testing.T) {
	heap := types.NewHeap()
	fn := strNative(heap)

	v, err := fn([]types.Value{types.Int(42)})
	require.NoError(t, err)
	s, ok := v.AsObj().(*types.String)
	require.True(t, ok)
	require.Equal(t, "42", s.Chars)

	// the result must go through the same intern table, so calling it
	// again with an equal literal returns the identical *String.
	v2, _ := fn([]types.Value{types.Int(42)})
	require.Same(t, s, v2.AsObj())
}

func TestLen(t *testing.T) {
	heap := types.NewHeap()

	strVal, err := lenNative([]types.Value{types.FromObj(heap.Intern("hello"))})
	require.NoError(t, err)
	require.Equal(t, int64(5), strVal.AsInt())

	arrVal, err := lenNative([]types.Value{types.FromObj(heap.NewArray([]types.Value{types.Nil, types.Nil, types.Nil}))})
	require.NoError(t, err)
	require.Equal(t, int64(3), arrVal.AsInt())

	_, err = lenNative([]types.Value{types.Int(1)})
	require.Error(t, err)

	_, err = lenNative([]types.Value{types.Nil, types.Nil})
	require.Error(t, err)
}

func TestAssertPassesWhenTruthy(t *testing.T) {
	v, err := assertNative([]types.Value{types.True, types.Nil})
	require.NoError(t, err)
	require.True(t, v.IsNil())
}
