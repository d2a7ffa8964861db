package zeroshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassMapOrderAndTotals(t *testing.T) {
	m := NewClassMap()
	m.Add("Downdog", []string{"d1.jpg", "d2.jpg"})
	m.Add("Tree", []string{"t1.jpg"})

	require.Equal(t, []string{"Downdog", "Tree"}, m.Classes())
	require.Equal(t, 2, m.Len())
	require.Equal(t, 3, m.TotalFiles())
	require.Equal(t, []string{"t1.jpg"}, m.Files("Tree"))
	require.Nil(t, m.Files("Plank"))
}

func TestClassMapAddReplacesWithoutReordering(t *testing.T) {
	m := NewClassMap()
	m.Add("a", []string{"1.jpg"})
	m.Add("b", []string{"2.jpg"})
	m.Add("a", []string{"3.jpg", "4.jpg"})

	require.Equal(t, []string{"a", "b"}, m.Classes())
	require.Equal(t, []string{"3.jpg", "4.jpg"}, m.Files("a"))
}

func TestClassMapCopiesOnReturn(t *testing.T) {
	m := NewClassMap()
	m.Add("a", []string{"1.jpg"})

	files := m.Files("a")
	files[0] = "mutated"
	require.Equal(t, []string{"1.jpg"}, m.Files("a"))
}
