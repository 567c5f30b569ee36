package store

import (
	"context"
	"fmt"
)

// Config selects and configures a store backend
type Config struct {
	Backend string      `json:"backend"`
	Redis   RedisConfig `json:"redis"`
	Blob    BlobConfig  `json:"blob"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBlob   = "blob"
)

// Open builds the store selected by cfg.Backend. An empty backend selects
// the in-memory store
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case BackendBlob:
		return NewBlobStore(ctx, cfg.Blob)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Backend)
	}
}
