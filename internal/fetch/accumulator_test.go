package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	t.Run("deduplicates in insertion order", func(t *testing.T) {
		s := NewSet("b", "a")
		s.Add("b", "c", "a")
		require.Equal(t, []string{"b", "a", "c"}, s.Items())
		require.Equal(t, 3, s.Len())
		require.True(t, s.Has("c"))
		require.False(t, s.Has("d"))
	})

	t.Run("zero value is usable", func(t *testing.T) {
		var s Set[int]
		require.False(t, s.Has(1))
		s.Add(1)
		require.True(t, s.Has(1))
	})

	t.Run("Difference", func(t *testing.T) {
		followers := NewSet("A", "C")
		following := NewSet("A", "B", "C", "D")
		require.Equal(t, []string{"B", "D"}, following.Difference(followers))
		require.Equal(t, []string{}, followers.Difference(following))
		require.Equal(t, []string{"A", "C"}, followers.Difference(nil))
	})

	t.Run("Items is a copy", func(t *testing.T) {
		s := NewSet("a")
		items := s.Items()
		items[0] = "z"
		require.True(t, s.Has("a"))
		require.Equal(t, []string{"a"}, s.Items())
	})
}

func TestList(t *testing.T) {
	l := NewList[int]()
	l.Add(3, 1)
	l.Add(1)
	require.Equal(t, []int{3, 1, 1}, l.Items())
	require.Equal(t, 3, l.Len())
}
