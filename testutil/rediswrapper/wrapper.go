//go:build integration

// Package rediswrapper starts a disposable Redis container for integration
// tests and hands out a connected client.
package rediswrapper

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const containerImage = "redis:7-alpine"

// Wrapper holds a running Redis container and a client connected to it.
type Wrapper struct {
	container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// CreateWrapperWithTestConfig starts a Redis container and connects a client
// to it. Container and client are torn down via t.Cleanup.
func CreateWrapperWithTestConfig(t *testing.T) *Wrapper {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, containerImage)
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return &Wrapper{
		container: container,
		URL:       url,
		Client:    client,
	}
}

// FlushAll removes all keys, isolating tests that share the container.
func (w *Wrapper) FlushAll(ctx context.Context) error {
	return w.Client.FlushAll(ctx).Err()
}
