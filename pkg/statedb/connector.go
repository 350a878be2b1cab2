// Package statedb publishes PCI transition state to the shared state store so
// other platform processes can see which modules are mid-detach.
package statedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNoConnector is returned when no state store is configured
var ErrNoConnector = errors.New("state store connector is not configured")

// Connector is the subset of hash operations used on the state store
type Connector interface {
	HSet(ctx context.Context, key, field, value string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// RedisOptions addresses a Redis state database
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// RedisConnector talks to the SONiC STATE_DB Redis instance
type RedisConnector struct {
	client redis.UniversalClient
}

// NewRedisConnector creates a connector; the connection is established lazily
func NewRedisConnector(opts RedisOptions) *RedisConnector {
	return NewRedisConnectorFromClient(redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	}))
}

// NewRedisConnectorFromClient wraps an existing client, such as a cluster
// or failover client
func NewRedisConnectorFromClient(client redis.UniversalClient) *RedisConnector {
	return &RedisConnector{client: client}
}

func (r *RedisConnector) HSet(ctx context.Context, key, field, value string) error {
	if err := r.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("hset %s %s: %w", key, field, err)
	}
	return nil
}

func (r *RedisConnector) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return fields, nil
}

func (r *RedisConnector) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *RedisConnector) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}
	return keys, nil
}

func (r *RedisConnector) Close() error {
	return r.client.Close()
}
