// internal/pkg/redis/client.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrCacheMiss 表示键不存在。
var ErrCacheMiss = errors.New("redis: cache miss")

// Client 是 go-redis 的一层薄封装，附带 JSON 读写帮助方法。
type Client struct {
	rdb *goredis.Client
}

func NewClient(addr string, db int) *Client {
	return &Client{
		rdb: goredis.NewClient(&goredis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// GetClient 暴露底层客户端，留给需要 pipeline / script 的调用方。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// GetJSON 读取键并反序列化到 dest，键不存在返回 ErrCacheMiss。
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON 序列化 value 并写入，带过期时间。
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
