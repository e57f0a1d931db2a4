package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Label string   `json:"label"`
	Steps []string `json:"steps"`
}

func TestResults_SetGet(t *testing.T) {
	c := New(1<<20, 60)
	require.NotNil(t, c)

	key := Key([]byte("leaf bytes"))
	var got entry
	hit, err := c.Get(key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(key, entry{Label: "Apple Black rot", Steps: []string{"prune"}}))

	hit, err = c.Get(key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, entry{Label: "Apple Black rot", Steps: []string{"prune"}}, got)
	assert.Equal(t, int64(1), c.EntryCount())
}

func TestResults_DisabledIsNil(t *testing.T) {
	c := New(0, 60)
	assert.Nil(t, c)

	require.NoError(t, c.Set(Key([]byte("x")), entry{}))
	hit, err := c.Get(Key([]byte("x")), &entry{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, c.HitRate())
}

func TestKey_Deterministic(t *testing.T) {
	assert.Equal(t, Key([]byte("a")), Key([]byte("a")))
	assert.NotEqual(t, Key([]byte("a")), Key([]byte("b")))
	assert.Len(t, Key(nil), 8)
}
