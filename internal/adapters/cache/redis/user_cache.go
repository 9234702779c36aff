package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactbook/backend/internal/domain/model"
)

// UserCache stores serialized user profiles under user:{username}. Every
// error it returns must be treated as a miss by the caller; the cache is
// never the source of truth.
type UserCache struct {
	client *redis.Client
}

func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client}
}

func key(username string) string {
	return "user:" + username
}

func (c *UserCache) Get(ctx context.Context, username string) (model.Profile, bool, error) {
	raw, err := c.client.Get(ctx, key(username)).Bytes()
	switch {
	case err == redis.Nil:
		return model.Profile{}, false, nil
	case err != nil:
		return model.Profile{}, false, err
	}

	var p model.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// corrupt entry: report a miss so the caller repopulates it
		return model.Profile{}, false, err
	}
	return p, true, nil
}

func (c *UserCache) Set(ctx context.Context, p model.Profile, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(p.Username), raw, ttl).Err()
}

func (c *UserCache) Delete(ctx context.Context, username string) error {
	return c.client.Del(ctx, key(username)).Err()
}
