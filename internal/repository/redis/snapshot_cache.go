package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iamasit07/connect4-engine/internal/domain"
)

// SnapshotCache stores the JSON state of each table with a TTL.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

func stateKey(tableID string) string {
	return fmt.Sprintf("connect4:table:%s:state", tableID)
}

func (c *SnapshotCache) SaveState(ctx context.Context, state domain.TableState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "marshal table state")
	}
	return c.client.Set(ctx, stateKey(state.TableID), payload, c.ttl).Err()
}

// LoadState returns nil, nil when nothing is cached for tableID.
func (c *SnapshotCache) LoadState(ctx context.Context, tableID string) (*domain.TableState, error) {
	payload, err := c.client.Get(ctx, stateKey(tableID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get state of table %s", tableID)
	}

	var state domain.TableState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrapf(err, "decode state of table %s", tableID)
	}
	return &state, nil
}

func (c *SnapshotCache) DeleteState(ctx context.Context, tableID string) error {
	return c.client.Del(ctx, stateKey(tableID)).Err()
}
