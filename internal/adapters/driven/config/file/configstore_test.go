package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.model", "local-model"))

	val, ok := store.Get("llm.model")
	assert.True(t, ok)
	assert.Equal(t, "local-model", val)

	_, ok = store.Get("llm.missing")
	assert.False(t, ok)
}

func TestConfigStore_WritesNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("retrieval.threshold", 1.5))
	require.NoError(t, store.Set("llm.provider", "lmstudio"))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "[retrieval]")
	assert.Contains(t, content, "[llm]")
	assert.NotContains(t, content, "'retrieval.top_k'")
}

func TestConfigStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("chunking.size", 200))
	require.NoError(t, store.Set("retrieval.threshold", 1.25))
	require.NoError(t, store.Set("watch.recursive", true))
	require.NoError(t, store.Set("embedding.model", "all-minilm"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 200, reopened.GetInt("chunking.size"))
	assert.InDelta(t, 1.25, reopened.GetFloat("retrieval.threshold"), 1e-9)
	assert.True(t, reopened.GetBool("watch.recursive"))
	assert.Equal(t, "all-minilm", reopened.GetString("embedding.model"))
	assert.Equal(t, []string{"chunking.size", "embedding.model", "retrieval.threshold", "watch.recursive"}, reopened.Keys())
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[chunking]
size = 120
overlap = 20

[retrieval]
threshold = 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 120, store.GetInt("chunking.size"))
	assert.Equal(t, 20, store.GetInt("chunking.overlap"))
	assert.InDelta(t, 2.0, store.GetFloat("retrieval.threshold"), 1e-9)
}

func TestConfigStore_TypeMismatch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "text"))

	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
}

func TestConfigStore_Unset(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	require.NoError(t, store.Unset("llm.api_key"))
	require.NoError(t, store.Unset("llm.api_key"))

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	_, ok := reopened.Get("llm.api_key")
	assert.False(t, ok)
}

func TestConfigStore_ConflictingKeys(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm", "scalar"))

	err = store.Set("llm.model", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflicts")
}

func TestConfigStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Set("retrieval.top_k", i))
			_ = store.GetInt("retrieval.top_k")
		}()
	}
	wg.Wait()
}

func TestFlattenUnflatten(t *testing.T) {
	flat := map[string]any{"a.b": 1, "a.c.d": "x", "e": true}

	nested, err := unflattenMap(flat)
	require.NoError(t, err)
	assert.Equal(t, flat, flattenMap(nested, ""))
}
