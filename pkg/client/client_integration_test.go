//go:build integration

package client

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/testutil"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/cache"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		client.Close()
		redisContainer.Terminate(ctx)
	})

	return client
}

func newCachedClient(t *testing.T, mock *testutil.MockVectra, rdb *redis.Client, ttl time.Duration) *Client {
	t.Helper()

	cfg := DefaultConfig(mock.URL(), "integration-key")
	cfg.Redis = rdb
	cfg.CacheTTL = ttl

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !c.CacheEnabled() {
		t.Fatal("CacheEnabled() = false with Redis configured")
	}
	return c
}

func TestIntegration_CachedReads(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockVectra()
	defer mock.Close()
	mock.SetJSON("GET tagging/detection/42", map[string]any{"status": "success", "tags": []any{"triage"}})
	mock.SetJSON("PATCH tagging/detection/42", map[string]any{"status": "success", "tags": []any{"closed"}})

	c := newCachedClient(t, mock, rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Tags(ctx, EntityDetection, 42)
		if err != nil {
			t.Fatalf("Tags() error = %v", err)
		}
		if got["status"] != "success" {
			t.Fatalf("Tags() = %v", got)
		}
	}
	if mock.RequestCount() != 1 {
		t.Errorf("upstream requests = %d, want 1 (later reads cached)", mock.RequestCount())
	}

	if _, err := c.UpdateTags(ctx, EntityDetection, 42, []string{"closed"}); err != nil {
		t.Fatalf("UpdateTags() error = %v", err)
	}

	if _, err := c.Tags(ctx, EntityDetection, 42); err != nil {
		t.Fatalf("Tags() after update error = %v", err)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("upstream requests = %d, want 3 (write invalidated the cached read)", mock.RequestCount())
	}
}

func TestIntegration_AssignmentWriteInvalidatesReads(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockVectra()
	defer mock.Close()
	mock.SetJSON("assignments/5", map[string]any{"id": 5})
	mock.SetJSON("assignments", map[string]any{"count": 1, "results": []any{map[string]any{"id": 5}}})
	mock.SetResponse("DELETE assignment/5", testutil.MockResponse{StatusCode: 204})

	c := newCachedClient(t, mock, rdb, time.Minute)
	ctx := context.Background()
	list := AssignmentListParams{Resolved: Bool(false)}

	read := func() {
		t.Helper()
		if _, err := c.Assignment(ctx, 5); err != nil {
			t.Fatalf("Assignment() error = %v", err)
		}
		if _, err := c.Assignments(ctx, list); err != nil {
			t.Fatalf("Assignments() error = %v", err)
		}
	}

	read()
	read()
	if mock.RequestCount() != 2 {
		t.Fatalf("upstream requests = %d, want 2 (second reads cached)", mock.RequestCount())
	}

	if _, err := c.DeleteAssignment(ctx, 5); err != nil {
		t.Fatalf("DeleteAssignment() error = %v", err)
	}

	read()
	if mock.RequestCount() != 5 {
		t.Errorf("upstream requests = %d, want 5 (delete on assignment/5 invalidated assignments reads)", mock.RequestCount())
	}
}

func TestIntegration_CacheExpiration(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockVectra()
	defer mock.Close()
	mock.SetJSON("health", map[string]any{"status": "ok"})

	c := newCachedClient(t, mock, rdb, time.Second)
	ctx := context.Background()

	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	key := cache.Key{Scope: c.scope, Endpoint: "health"}
	if n, err := rdb.Exists(ctx, key.String()).Result(); err != nil || n != 1 {
		t.Fatalf("cache key %q missing: n=%d err=%v", key, n, err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2 after expiry", mock.RequestCount())
	}
}

func TestIntegration_ErrorsNotCached(t *testing.T) {
	rdb := setupRedisContainer(t)
	mock := testutil.NewMockVectra()
	defer mock.Close()

	c := newCachedClient(t, mock, rdb, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Host(ctx, 404); !IsNotFound(err) {
			t.Fatalf("Host() error = %v, want not found", err)
		}
	}
	if mock.RequestCount() != 2 {
		t.Errorf("upstream requests = %d, want 2", mock.RequestCount())
	}
}
