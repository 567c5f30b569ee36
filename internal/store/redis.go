package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

type (
	// RedisConfig configures the Redis-backed store
	RedisConfig struct {
		Addr     string        `json:"addr"`
		Password string        `json:"password"`
		Prefix   string        `json:"prefix"`
		DB       int           `json:"db"`
		TTL      time.Duration `json:"ttl"`
	}

	// RedisStore keeps each workflow as a JSON document in Redis. Every
	// write refreshes the key's TTL, so retention is owned by Redis
	RedisStore struct {
		client *redis.Client
		prefix string
		ttl    time.Duration
	}
)

const (
	workflowKeySegment = "workflow"
	scanBatchSize      = 100
)

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(
	client *redis.Client, prefix string, ttl time.Duration,
) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, bool, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	wf, err := decodeWorkflow(data)
	if err != nil {
		return nil, false, err
	}
	return wf, true, nil
}

func (s *RedisStore) Set(ctx context.Context, wf *api.Workflow) error {
	if err := checkWorkflow(wf); err != nil {
		return err
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := s.client.Set(ctx, s.key(wf.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id api.WorkflowID) (bool, error) {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Exists(ctx context.Context, id api.WorkflowID) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return n > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]*api.Workflow, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key("*"), scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if len(keys) == 0 {
		return []*api.Workflow{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackend, err)
	}

	res := make([]*api.Workflow, 0, len(values))
	for _, v := range values {
		// keys may expire between SCAN and MGET
		str, ok := v.(string)
		if !ok {
			continue
		}
		wf, err := decodeWorkflow([]byte(str))
		if err != nil {
			return nil, err
		}
		res = append(res, wf)
	}
	return res, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id api.WorkflowID) string {
	parts := []string{workflowKeySegment, string(id)}
	if s.prefix != "" {
		parts = append([]string{s.prefix}, parts...)
	}
	return strings.Join(parts, ":")
}

func decodeWorkflow(data []byte) (*api.Workflow, error) {
	var wf api.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if wf.Nodes == nil {
		wf.Nodes = map[api.NodeID]*api.Node{}
	}
	return &wf, nil
}
