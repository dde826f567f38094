package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_GetMissing(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("missing"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("llm.model", "local-model"))
	require.NoError(t, store.Set("chunking.size", int64(300)))
	require.NoError(t, store.Set("retrieval.threshold", 1.5))
	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("watch.recursive", true))

	assert.Equal(t, "local-model", store.GetString("llm.model"))
	assert.Equal(t, 300, store.GetInt("chunking.size"))
	assert.InDelta(t, 1.5, store.GetFloat("retrieval.threshold"), 1e-9)
	assert.InDelta(t, 5.0, store.GetFloat("retrieval.top_k"), 1e-9)
	assert.True(t, store.GetBool("watch.recursive"))
}

func TestConfigStore_WrongTypes(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("key", []string{"a"}))

	assert.Empty(t, store.GetString("key"))
	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
}

func TestConfigStore_UnsetAndKeys(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("b", 1))
	require.NoError(t, store.Set("a", 2))

	assert.Equal(t, []string{"a", "b"}, store.Keys())

	require.NoError(t, store.Unset("a"))
	require.NoError(t, store.Unset("missing"))
	assert.Equal(t, []string{"b"}, store.Keys())
}

func TestConfigStore_SaveLoadPath(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}
