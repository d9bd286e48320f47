package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-calltime/internal/core/model"
	"github.com/penwyp/go-calltime/internal/util"
)

// DefaultDir is where channel caches live unless configured otherwise.
const DefaultDir = "./cache"

// Store persists the message history of a channel.
type Store interface {
	Load(channelId string) ([]model.Message, error)
	Save(channelId string, messages []model.Message) error
	Clear(channelId string) error
}

// CorruptCacheError reports a cache document that exists but cannot be decoded.
type CorruptCacheError struct {
	Path string
	Err  error
}

func (e *CorruptCacheError) Error() string {
	return fmt.Sprintf("corrupt cache file %s: %v (remove it or run with --reset)", e.Path, e.Err)
}

func (e *CorruptCacheError) Unwrap() error {
	return e.Err
}

// ErrInvalidChannelId is returned for channel ids that cannot name a cache file.
var ErrInvalidChannelId = errors.New("invalid channel id")

// FileStore keeps one pretty-printed JSON document per channel.
type FileStore struct {
	baseDir string
}

// NewFileStore returns a store rooted at baseDir. The directory is created
// lazily on the first Save.
func NewFileStore(baseDir string) *FileStore {
	if baseDir == "" {
		baseDir = DefaultDir
	}
	return &FileStore{baseDir: baseDir}
}

// Path returns the cache file for a channel.
func (s *FileStore) Path(channelId string) (string, error) {
	if channelId == "" || channelId == "." || channelId == ".." ||
		strings.ContainsAny(channelId, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannelId, channelId)
	}
	return filepath.Join(s.baseDir, channelId+".json"), nil
}

func (s *FileStore) Load(channelId string) ([]model.Message, error) {
	cachePath, err := s.Path(channelId)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			util.LogDebugf("No cache file at %s, starting empty", cachePath)
			return []model.Message{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cachePath, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &CorruptCacheError{Path: cachePath, Err: errors.New("document is not a message list")}
	}

	messages := []model.Message{}
	if err := sonic.Unmarshal(trimmed, &messages); err != nil {
		return nil, &CorruptCacheError{Path: cachePath, Err: err}
	}

	util.LogDebugf("Loaded %d cached messages from %s", len(messages), cachePath)
	return messages, nil
}

// Save replaces the channel's cache document. The data is written to a
// temporary file first so an interrupted run never leaves a truncated cache.
func (s *FileStore) Save(channelId string, messages []model.Message) error {
	cachePath, err := s.Path(channelId)
	if err != nil {
		return err
	}

	if messages == nil {
		messages = []model.Message{}
	}

	data, err := sonic.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.baseDir, channelId+".json.*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(append(data, '\n')); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync cache file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpPath, cachePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	util.LogDebugf("Saved %d messages to %s", len(messages), cachePath)
	return nil
}

// Clear removes the channel's cache document if present.
func (s *FileStore) Clear(channelId string) error {
	cachePath, err := s.Path(channelId)
	if err != nil {
		return err
	}

	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}
