// Package testutil starts throwaway backing services in Docker for integration tests.
package testutil

import (
	"fmt"
	"net"

	"github.com/jaevor/go-nanoid"
	"github.com/ory/dockertest/v3"
)

type Cleanup func() error

const containerExpireSeconds = 120

const (
	containerNameCharacters   = "abcdefghijklmnopqrstuvwxyz"
	containerNameNanoIDLength = 12
)

func initDockertest(pool *dockertest.Pool) (*dockertest.Pool, error) {
	if pool == nil {
		var err error
		pool, err = dockertest.NewPool("")
		if err != nil {
			return nil, fmt.Errorf("could not construct pool: %w", err)
		}
	}

	if err := pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to Docker: %w", err)
	}

	return pool, nil
}

// containerName returns a unique name so parallel test runs do not collide.
func containerName(service string) (string, error) {
	generateID, err := nanoid.CustomASCII(containerNameCharacters, containerNameNanoIDLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate container name: %w", err)
	}
	return fmt.Sprintf("config-client-%s_%s", service, generateID()), nil
}

func purgeFunc(pool *dockertest.Pool, resource *dockertest.Resource, service string) Cleanup {
	return func() error {
		if purgeErr := pool.Purge(resource); purgeErr != nil {
			return fmt.Errorf("could not purge %s container: %w", service, purgeErr)
		}
		return nil
	}
}

func splitHostPort(hostPort string) (string, string, bool) {
	host, port, err := net.SplitHostPort(hostPort)
	if err != nil || port == "" {
		return "", "", false
	}
	return host, port, true
}
