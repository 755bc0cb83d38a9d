package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"quoteflow/internal/model"
)

// ToolCache is the cache-aside layer over tool configuration. The question
// list can change between sessions, so entries are short-lived and saves
// invalidate.
type ToolCache interface {
	Set(ctx context.Context, tool *model.Tool) error
	Get(ctx context.Context, id string) (*model.Tool, error)
	Delete(ctx context.Context, id string) error
}

type toolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewToolCache creates a new tool cache
func NewToolCache(client *redis.Client) ToolCache {
	return &toolCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *toolCache) toolKey(id string) string {
	return "tool:" + id
}

func (c *toolCache) Set(ctx context.Context, tool *model.Tool) error {
	data, err := json.Marshal(tool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.toolKey(tool.ID), data, c.ttl).Err()
}

func (c *toolCache) Get(ctx context.Context, id string) (*model.Tool, error) {
	data, err := c.client.Get(ctx, c.toolKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tool model.Tool
	if err := json.Unmarshal([]byte(data), &tool); err != nil {
		return nil, err
	}
	return &tool, nil
}

func (c *toolCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.toolKey(id)).Err()
}
