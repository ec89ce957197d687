package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"landregistry/pkg/platform/sentinel"
)

const keyPrefix = "docstore:blob:"

// Redis stores blobs in Redis keyed by content hash. SETNX keeps stored
// blobs immutable: a hash is written once and never overwritten.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Put(ctx context.Context, content []byte) (string, error) {
	hash := HashContent(content)
	if err := s.client.SetNX(ctx, keyPrefix+hash, content, 0).Err(); err != nil {
		return "", fmt.Errorf("put blob: %w", sentinel.ErrUnavailable)
	}
	return hash, nil
}

func (s *Redis) Get(ctx context.Context, contentHash string) ([]byte, error) {
	blob, err := s.client.Get(ctx, keyPrefix+contentHash).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get blob: %w", sentinel.ErrUnavailable)
	}
	return blob, nil
}
