package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil, false},
		{"false", False, false},
		{"true", True, true},
		{"zero int", Int(0), true},
		{"zero float", Float(0), true},
		{"empty string", FromObj(&String{Chars: ""}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestValueEqual(t *testing.T) {
	s1 := &String{Chars: "a"}
	s2 := &String{Chars: "a"}

	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil == nil", Nil, Nil, true},
		{"int == equal float", Int(3), Float(3.0), true},
		{"int != different float", Int(3), Float(3.5), false},
		{"bool true == true", True, True, true},
		{"bool true != false", True, False, false},
		{"same object pointer", FromObj(s1), FromObj(s1), true},
		{"different object pointers, same content", FromObj(s1), FromObj(s2), false},
		{"nil != false", Nil, False, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Equal(c.a, c.b))
		})
	}
}

func TestValueAccessors(t *testing.T) {
	require.True(t, Int(42).IsInt())
	require.Equal(t, int64(42), Int(42).AsInt())
	require.True(t, Float(1.5).IsFloat())
	require.Equal(t, 1.5, Float(1.5).AsFloat())
	require.Equal(t, float64(42), Int(42).AsNumber())
	require.Equal(t, 1.5, Float(1.5).AsNumber())
	require.True(t, Bool(true).AsBool())
	require.False(t, Bool(false).AsBool())

	p := RawPtr(7)
	require.True(t, p.IsPtr())
	require.Equal(t, 7, p.AsPtr())
}
