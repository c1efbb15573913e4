// Package redis provides Redis-backed storage adapters. It currently persists
// reconciliation reports so repeated verification runs leave an audit trail.
package redis

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// client wraps a Redis connection used as the report store.
type client struct {
	conn *redis.Client
}

// Close releases the underlying connection. The store must not be used afterwards.
func (c *client) Close() error {
	return c.conn.Close()
}

// NewClient connects to the Redis instance at addr and verifies the
// connection with a ping before returning the report store.
func NewClient(ctx context.Context, addr, username, password string, db int) (*client, error) {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       db,
	})

	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging report store: %w", err)
	}

	return &client{
		conn: conn,
	}, nil
}
