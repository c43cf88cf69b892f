package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	tbl := NewTable()
	key := &String{Chars: "x", Hash: fnv1a("x")}

	_, ok := tbl.Get(key)
	require.False(t, ok, "missing key should not be found")

	isNew := tbl.Set(key, Int(1))
	require.True(t, isNew, "first Set of a key must report isNew")

	v, ok := tbl.Get(key)
	require.True(t, ok)
	require.True(t, Equal(Int(1), v))

	isNew = tbl.Set(key, Int(2))
	require.False(t, isNew, "overwriting an existing key must not report isNew")

	v, _ = tbl.Get(key)
	require.True(t, Equal(Int(2), v))

	require.True(t, tbl.Delete(key))
	_, ok = tbl.Get(key)
	require.False(t, ok)
	require.False(t, tbl.Delete(key), "deleting an absent key reports false")
}

// TestTableTombstoneReuse exercises the delete-then-insert path through a
// colliding key, the scenario findEntry's tombstone handling exists for:
// a probe sequence must not stop early at a deleted slot.
func TestTableTombstoneReuse(t *testing.T) {
	tbl := NewTable()
	keys := make([]*String, 0, 40)
	for i := 0; i < 40; i++ {
		s := string(rune('a' + i%26))
		for j := 0; j < i/26+1; j++ {
			s += string(rune('a' + i%26))
		}
		k := &String{Chars: s, Hash: fnv1a(s)}
		keys = append(keys, k)
		tbl.Set(k, Int(int64(i)))
	}

	// delete every other key, then confirm every surviving key is still
	// reachable (probe sequences through the freed tombstones still work).
	for i, k := range keys {
		if i%2 == 0 {
			require.True(t, tbl.Delete(k))
		}
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		if i%2 == 0 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.True(t, Equal(Int(int64(i)), v))
	}

	// re-insert the deleted keys into the freed tombstones, then confirm
	// every key is reachable again.
	for i, k := range keys {
		if i%2 == 0 {
			require.True(t, tbl.Set(k, Int(int64(i))))
		}
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.True(t, Equal(Int(int64(i)), v))
	}
}

func TestTableFindString(t *testing.T) {
	tbl := NewTable()
	s := &String{Chars: "hello", Hash: fnv1a("hello")}
	require.Nil(t, tbl.FindString("hello", fnv1a("hello")))

	tbl.Set(s, Nil)
	found := tbl.FindString("hello", fnv1a("hello"))
	require.Same(t, s, found)
	require.Nil(t, tbl.FindString("goodbye", fnv1a("goodbye")))
}

func TestTableGrowsAndStaysConsistent(t *testing.T) {
	tbl := NewTable()
	const n = 200
	keys := make([]*String, n)
	for i := 0; i < n; i++ {
		s := string(rune('A'+i%26)) + string(rune('a'+(i/26)%26)) + string(rune('0'+i%10))
		keys[i] = &String{Chars: s, Hash: fnv1a(s)}
	}
	for i, k := range keys {
		tbl.Set(k, Int(int64(i)))
	}
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.True(t, Equal(Int(int64(i)), v))
	}
}
