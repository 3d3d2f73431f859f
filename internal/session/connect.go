package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect establishes a Redis connection from a connection URL and verifies
// it with a ping before handing the client to the caller.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
