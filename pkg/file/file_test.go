package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileService_EnsureDir_Idempotent tests that repeated calls leave the same directory state.
func TestFileService_EnsureDir_Idempotent(t *testing.T) {
	fs := file.NewFileService()
	dir := filepath.Join(t.TempDir(), "a", "b", "data")

	for i := 0; i < 3; i++ {
		require.NoError(t, fs.EnsureDir(dir))
	}

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestFileService_WriteJsonFile_PrettyPrinted tests that JSON is indented and no temp files remain.
func TestFileService_WriteJsonFile_PrettyPrinted(t *testing.T) {
	fs := file.NewFileService()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	err := fs.WriteJsonFile(path, []map[string]int{{"a": 1}})
	require.NoError(t, err)

	raw, err := fs.ReadFileRaw(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"a\": 1\n  }\n]", string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// TestFileService_IsFileExists tests existence checks.
func TestFileService_IsFileExists(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "missing.json")

	exists, err := fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.WriteJsonFile(path, map[string]string{}))
	exists, err = fs.IsFileExists(path)
	assert.NoError(t, err)
	assert.True(t, exists)
}

// TestFileService_ReadYamlFile tests YAML decoding.
func TestFileService_ReadYamlFile(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: recorder\n"), 0600))

	var out struct {
		Name string `yaml:"name"`
	}
	require.NoError(t, fs.ReadYamlFile(path, &out))
	assert.Equal(t, "recorder", out.Name)
}

// TestFileService_WriteJsonFile_Mode tests that written files are world-readable.
func TestFileService_WriteJsonFile_Mode(t *testing.T) {
	fs := file.NewFileService()
	path := filepath.Join(t.TempDir(), "locations.json")

	require.NoError(t, fs.WriteJsonFile(path, []int{1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}
