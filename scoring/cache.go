package scoring

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the raw artifact bytes between process runs. A hit means the
// remote endpoint is not contacted.
type Cache interface {
	Get(ctx context.Context) (data []byte, ok bool, err error)
	Put(ctx context.Context, data []byte) error
	String() string
}

// FileCache keeps the artifact in a single local file; its presence is the
// cache hit signal.
type FileCache struct {
	Path string
}

func NewFileCache(path string) *FileCache {
	return &FileCache{Path: path}
}

func (c *FileCache) Get(_ context.Context) ([]byte, bool, error) {
	data, err := os.ReadFile(c.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put writes through a temp file so a crash never leaves a torn artifact.
func (c *FileCache) Put(_ context.Context, data []byte) error {
	dir := filepath.Dir(c.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), c.Path)
}

func (c *FileCache) String() string {
	return "file:" + c.Path
}

// KV is the subset of the redis client the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisCache shares the artifact bytes between replicas under one key.
type RedisCache struct {
	client KV
	key    string
}

func NewRedisCache(client KV, key string) *RedisCache {
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Get(ctx context.Context) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) Put(ctx context.Context, data []byte) error {
	return c.client.Set(ctx, c.key, data, 0).Err()
}

func (c *RedisCache) String() string {
	return "redis:" + c.key
}
