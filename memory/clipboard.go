package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// Clipboard stores hold the flat list of session facts so the clipboard
// survives process restarts. Order and duplicates-by-exact-text are the
// caller's responsibility; stores persist the list verbatim.

// FileClipboardStore keeps the clipboard as a JSON array on disk.
type FileClipboardStore struct {
	path string
}

// NewFileClipboardStore creates a file-backed clipboard store at path.
func NewFileClipboardStore(path string) *FileClipboardStore {
	return &FileClipboardStore{path: path}
}

// Load reads the clipboard list. A missing file is an empty clipboard.
func (s *FileClipboardStore) Load(_ context.Context) ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read clipboard file: %w", err)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse clipboard file: %w", err)
	}
	return items, nil
}

// Save writes the clipboard list, creating the parent directory if needed.
func (s *FileClipboardStore) Save(_ context.Context, items []string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create clipboard dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode clipboard: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write clipboard file: %w", err)
	}
	return nil
}

// RedisClipboardStore keeps the clipboard as a JSON-encoded list under a
// single Redis key.
type RedisClipboardStore struct {
	client *redis.Client
	key    string
}

// NewRedisClipboardStore creates a Redis-backed clipboard store. key
// defaults to "magi:clipboard" when empty.
func NewRedisClipboardStore(client *redis.Client, key string) *RedisClipboardStore {
	if key == "" {
		key = "magi:clipboard"
	}
	return &RedisClipboardStore{client: client, key: key}
}

// Load reads the clipboard list. A missing key is an empty clipboard.
func (s *RedisClipboardStore) Load(ctx context.Context) ([]string, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read clipboard key: %w", err)
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse clipboard key: %w", err)
	}
	return items, nil
}

// Save writes the clipboard list.
func (s *RedisClipboardStore) Save(ctx context.Context, items []string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode clipboard: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write clipboard key: %w", err)
	}
	return nil
}
