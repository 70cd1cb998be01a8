package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures of the Redis backend.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Redis is a [Store] keeping the mirror in Redis, for deployments where
// several co-located client processes share one session (for example a
// front-desk kiosk fleet). Keys are "<prefix>:token" and "<prefix>:user".
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store. prefix defaults to "gymclient".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "gymclient"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) tokenKey() string { return r.prefix + ":token" }
func (r *Redis) userKey() string  { return r.prefix + ":user" }

func (r *Redis) Load(ctx context.Context) (Snapshot, bool, error) {
	vals, err := r.client.MGet(ctx, r.tokenKey(), r.userKey()).Result()
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	token, tokenOK := vals[0].(string)
	user, userOK := vals[1].(string)
	if !tokenOK && !userOK {
		return Snapshot{}, false, nil
	}
	snap := Snapshot{Token: token, User: []byte(user)}
	if !tokenOK || !userOK || !snap.Complete() {
		return Snapshot{}, false, ErrCorrupt
	}
	return snap, true, nil
}

func (r *Redis) Save(ctx context.Context, snap Snapshot) error {
	// MSET is atomic server-side, so both entries land together.
	err := r.client.MSet(ctx, r.tokenKey(), snap.Token, r.userKey(), string(snap.User)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.tokenKey(), r.userKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
