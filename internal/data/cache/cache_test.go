package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func sampleMessages() []model.Message {
	return []model.Message{
		{Id: "3", Timestamp: "2024-01-15T12:00:00+00:00"},
		{Id: "2", Timestamp: "2024-01-15T11:00:00+00:00", Call: &model.Call{EndedTimestamp: strPtr("2024-01-15T11:30:00+00:00")}},
		{Id: "1", Timestamp: "2024-01-15T10:00:00+00:00", Call: &model.Call{}},
	}
}

func ids(messages []model.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.Id
	}
	return out
}

func TestNewFileStoreDefaultDir(t *testing.T) {
	store := NewFileStore("")
	assert.Equal(t, DefaultDir, store.baseDir)
}

func TestPath(t *testing.T) {
	store := NewFileStore("/tmp/cache")

	path, err := store.Path("123456789")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/cache", "123456789.json"), path)

	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "../escape"} {
		_, err := store.Path(bad)
		assert.ErrorIs(t, err, ErrInvalidChannelId, "channel id %q", bad)
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())

	messages, err := store.Load("123")
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	store := NewFileStore(dir)

	require.NoError(t, store.Save("123", sampleMessages()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, "123.json"))
	require.NoError(t, err)
}

func TestSaveIsPrettyPrinted(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save("123", sampleMessages()))

	data, err := os.ReadFile(filepath.Join(dir, "123.json"))
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "[\n  {"), "cache should be indented, got %q", text[:10])
	assert.Contains(t, text, "\n    \"id\": \"3\"")
}

func TestSaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save("123", sampleMessages()))
	require.NoError(t, store.Save("123", sampleMessages()[:1]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "123.json", entries[0].Name())
}

func TestSaveOverwrites(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save("123", sampleMessages()))
	require.NoError(t, store.Save("123", sampleMessages()[:1]))

	messages, err := store.Load("123")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids(messages))
}

func TestRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save("123", sampleMessages()))

	first, err := store.Load("123")
	require.NoError(t, err)

	require.NoError(t, store.Save("123", first))
	second, err := store.Load("123")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"3", "2", "1"}, ids(second))
	assert.True(t, second[1].IsEndedCall())
	assert.True(t, second[2].IsCall())
	assert.False(t, second[2].IsEndedCall())
}

func TestRoundTripPreservesApiFields(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"id":"9","timestamp":"2024-01-15T10:00:00+00:00","author":{"id":"77","username":"bob"},"type":3,"call":{"participants":["77"],"ended_timestamp":null}}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.json"), []byte(raw), 0644))

	store := NewFileStore(dir)
	messages, err := store.Load("123")
	require.NoError(t, err)
	require.NoError(t, store.Save("123", messages))

	data, err := os.ReadFile(filepath.Join(dir, "123.json"))
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
}

func TestLoadCorruptCache(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `[{"id": "1", "timest`},
		{name: "object instead of list", content: `{"id": "1"}`},
		{name: "null document", content: `null`},
		{name: "empty file", content: ``},
		{name: "entry without id", content: `[{"timestamp": "2024-01-15T10:00:00Z"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "123.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := NewFileStore(dir).Load("123")
			require.Error(t, err)

			var corrupt *CorruptCacheError
			require.True(t, errors.As(err, &corrupt), "expected CorruptCacheError, got %T", err)
			assert.Equal(t, path, corrupt.Path)
		})
	}
}

func TestLoadEmptyList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "123.json"), []byte("[]\n"), 0644))

	messages, err := NewFileStore(dir).Load("123")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSaveNilWritesEmptyList(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save("123", nil))

	data, err := os.ReadFile(filepath.Join(dir, "123.json"))
	require.NoError(t, err)

	var decoded []interface{}
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Empty(t, decoded)
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, store.Save("123", sampleMessages()))

	require.NoError(t, store.Clear("123"))
	_, err := os.Stat(filepath.Join(dir, "123.json"))
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	assert.NoError(t, store.Clear("123"))
}
