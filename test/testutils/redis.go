package testutils

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nutriplan/dietplan/internal/infrastructure/config"
)

// TestRedis is a disposable Redis container
type TestRedis struct {
	Container testcontainers.Container
	Config    config.RedisConfig
	Addr      string
}

// SetupTestRedis starts redis:7-alpine and terminates it when the test ends
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()
	ctx := context.Background()
	port := nat.Port("6379/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start redis container")

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return &TestRedis{
		Container: container,
		Addr:      host + ":" + mapped.Port(),
		Config: config.RedisConfig{
			Host:         host,
			Port:         mapped.Int(),
			MaxRetries:   1,
			PoolSize:     5,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			KeyPrefix:    "test:" + strconv.FormatInt(time.Now().UnixNano(), 36) + ":",
		},
	}
}
