package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentMapAddPreservesOrder(t *testing.T) {
	m := CommentMap{}
	m.Add("main.go", "10", "first")
	m.Add("main.go", "10", "second")

	require.Equal(t, []string{"first", "second"}, m["main.go"]["10"])
}

func TestCommentMapReplaceFirst(t *testing.T) {
	m := CommentMap{}
	m.Add("main.go", "10", "dup")
	m.Add("main.go", "10", "dup")

	require.True(t, m.ReplaceFirst("main.go", "10", "dup", "edited"))
	assert.Equal(t, []string{"edited", "dup"}, m["main.go"]["10"])

	assert.False(t, m.ReplaceFirst("main.go", "10", "missing", "x"))
	assert.False(t, m.ReplaceFirst("other.go", "1", "dup", "x"))
}

func TestCommentMapRemoveCollectsEmptyContainers(t *testing.T) {
	m := CommentMap{}
	m.Add("main.go", "10", "only one")
	m.Add("main.go", "20", "stays")

	require.True(t, m.Remove("main.go", "10", "only one"))
	_, lineExists := m["main.go"]["10"]
	assert.False(t, lineExists)
	assert.Contains(t, m, "main.go")

	require.True(t, m.Remove("main.go", "20", "stays"))
	assert.NotContains(t, m, "main.go")
	assert.Empty(t, m)
}

func TestCommentMapRemoveOnlyFirstMatch(t *testing.T) {
	m := CommentMap{}
	m.Add("main.go", "10", "dup")
	m.Add("main.go", "10", "dup")

	require.True(t, m.Remove("main.go", "10", "dup"))
	assert.Equal(t, []string{"dup"}, m["main.go"]["10"])
}

func TestCommentMapRemoveMissing(t *testing.T) {
	m := CommentMap{}
	assert.False(t, m.Remove("main.go", "10", "nothing"))

	m.Add("main.go", "10", "text")
	assert.False(t, m.Remove("main.go", "11", "text"))
	assert.False(t, m.Remove("main.go", "10", "other"))
}
