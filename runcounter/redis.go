package runcounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const runNumberPrefix = "scout:run_number:"

// Redis keeps the run number under one key per scout.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis returns a store for the named scout.
func NewRedis(client *redis.Client, scout string) *Redis {
	return &Redis{client: client, key: fmt.Sprintf("%s%s", runNumberPrefix, scout)}
}

func (r *Redis) Load(ctx context.Context) (uint64, error) {
	value, err := r.client.Get(ctx, r.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, PersistenceError{Op: "load", Err: err}
	}
	return value, nil
}

func (r *Redis) Save(ctx context.Context, value uint64) error {
	if err := r.client.Set(ctx, r.key, value, 0).Err(); err != nil {
		return PersistenceError{Op: "save", Err: err}
	}
	return nil
}
