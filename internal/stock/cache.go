package stock

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKeyPrefix = "stock:snapshot:"

// SnapshotCache memoizes raw record sets in Redis keyed by freshness stamp.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache wires the cache. A nil client disables it.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func snapshotKey(stamp string) string {
	return snapshotKeyPrefix + stamp
}

// Get returns the cached set for stamp. ok is false on a miss.
func (c *SnapshotCache) Get(ctx context.Context, stamp string) ([]RawProduct, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	payload, err := c.client.Get(ctx, snapshotKey(stamp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var raws []RawProduct
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, false, err
	}
	return raws, true, nil
}

// Put stores the set under stamp.
func (c *SnapshotCache) Put(ctx context.Context, stamp string, raws []RawProduct) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(raws)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey(stamp), payload, c.ttl).Err()
}
