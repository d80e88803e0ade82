package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burgstallerstefan/Secudo-sub000/pkg/model"
)

func TestLayoutCacheRoundTrip(t *testing.T) {
	cache, err := NewLayoutCache(t.TempDir(), nil)
	require.NoError(t, err)

	state := model.LayoutState{
		Positions: map[string]model.Position{
			"n1": {X: 40, Y: 40},
			"n2": {X: 260, Y: 40},
		},
		Sizes: map[string]model.Size{
			"n1": {Width: 460, Height: 320},
		},
	}
	require.NoError(t, cache.Save("proj-1", state))

	loaded, ok := cache.Load("proj-1")
	require.True(t, ok)
	assert.Equal(t, state, loaded)
}

func TestLayoutCacheMissingFileIsNotAnError(t *testing.T) {
	cache, err := NewLayoutCache(t.TempDir(), nil)
	require.NoError(t, err)

	_, ok := cache.Load("never-saved")
	assert.False(t, ok)
}

func TestLayoutCacheCorruptFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewLayoutCache(dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "proj-1.layout.snappy"), []byte("not snappy data"), 0o644))

	_, ok := cache.Load("proj-1")
	assert.False(t, ok, "corrupt cache degrades to computed placement")
}

func TestLayoutCacheProjectsAreIsolated(t *testing.T) {
	cache, err := NewLayoutCache(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, cache.Save("proj-1", model.LayoutState{
		Positions: map[string]model.Position{"n1": {X: 1, Y: 2}},
	}))
	require.NoError(t, cache.Save("proj-2", model.LayoutState{
		Positions: map[string]model.Position{"n1": {X: 9, Y: 9}},
	}))

	a, ok := cache.Load("proj-1")
	require.True(t, ok)
	b, ok := cache.Load("proj-2")
	require.True(t, ok)
	assert.NotEqual(t, a.Positions["n1"], b.Positions["n1"])
}

func TestLayoutCacheForget(t *testing.T) {
	cache, err := NewLayoutCache(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, cache.Save("proj-1", model.LayoutState{}))
	require.NoError(t, cache.Forget("proj-1"))
	_, ok := cache.Load("proj-1")
	assert.False(t, ok)

	// Forgetting an absent project is a no-op.
	require.NoError(t, cache.Forget("proj-1"))
}
