package testutil

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/multierr"
)

// TestWithRedis starts a redis container and returns a connected client.
func TestWithRedis(pool *dockertest.Pool) (_ *redis.Client, _ Cleanup, err error) {
	pool, err = initDockertest(pool)
	if err != nil {
		return nil, nil, err
	}

	name, err := containerName("redis")
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       name,
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start redis container: %w", err)
	}

	cleanup := purgeFunc(pool, resource, "redis")
	defer func() {
		if err != nil {
			err = multierr.Append(err, cleanup())
		}
	}()

	if err = resource.Expire(containerExpireSeconds); err != nil {
		return nil, nil, fmt.Errorf("could not set expiration time for redis container: %w", err)
	}

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	err = pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	})
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("could not connect to redis: %w", err), client.Close())
	}

	closeAndPurge := func() error {
		return multierr.Append(client.Close(), cleanup())
	}
	return client, closeAndPurge, nil
}
