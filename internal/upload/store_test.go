package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s, err := NewStore(dir, true)
	require.NoError(t, err)

	path, err := s.Save("../../etc/Leaf.JPG", []byte("data"))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, ".jpg", filepath.Ext(path))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	other, err := s.Save("leaf.jpg", []byte("data"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestStore_Disabled(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	s, err := NewStore(dir, false)
	require.NoError(t, err)

	path, err := s.Save("leaf.png", []byte("data"))
	require.NoError(t, err)
	assert.Empty(t, path)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckExtension(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.jpeg", "a.png", "A.PNG"} {
		_, err := CheckExtension(name)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"a.gif", "a", "a.png.exe"} {
		_, err := CheckExtension(name)
		assert.ErrorIs(t, err, ErrExtension, name)
	}
}
