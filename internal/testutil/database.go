package testutil

import (
	"fmt"

	"config_client/internal/config"

	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"go.uber.org/multierr"
)

const (
	testDBName     = "users_test"
	testDBUser     = "user"
	testDBPassword = "password"
)

// TestWithPostgres starts a postgres container and returns a connected handle.
func TestWithPostgres(pool *dockertest.Pool) (*sqlx.DB, Cleanup, error) {
	return testWithDatabase(pool, "postgres", &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_DB=" + testDBName,
			"POSTGRES_USER=" + testDBUser,
			"POSTGRES_PASSWORD=" + testDBPassword,
		},
	}, "5432/tcp")
}

// TestWithMySQL starts a mysql container and returns a connected handle.
func TestWithMySQL(pool *dockertest.Pool) (*sqlx.DB, Cleanup, error) {
	return testWithDatabase(pool, "mysql", &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0",
		Env: []string{
			"MYSQL_DATABASE=" + testDBName,
			"MYSQL_USER=" + testDBUser,
			"MYSQL_PASSWORD=" + testDBPassword,
			"MYSQL_ROOT_PASSWORD=" + testDBPassword,
		},
	}, "3306/tcp")
}

func testWithDatabase(pool *dockertest.Pool, driver string, opts *dockertest.RunOptions, port docker.Port) (_ *sqlx.DB, _ Cleanup, err error) {
	pool, err = initDockertest(pool)
	if err != nil {
		return nil, nil, err
	}

	opts.Name, err = containerName(driver)
	if err != nil {
		return nil, nil, err
	}

	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start %s container: %w", driver, err)
	}

	cleanup := purgeFunc(pool, resource, driver)
	defer func() {
		if err != nil {
			err = multierr.Append(err, cleanup())
		}
	}()

	if err = resource.Expire(containerExpireSeconds); err != nil {
		return nil, nil, fmt.Errorf("could not set expiration time for %s container: %w", driver, err)
	}

	host, hostPort, ok := splitHostPort(resource.GetHostPort(string(port)))
	if !ok {
		return nil, nil, fmt.Errorf("could not resolve %s host port", driver)
	}

	dbCfg := &config.DBConfig{
		Driver:   driver,
		Host:     host,
		Port:     hostPort,
		User:     testDBUser,
		Password: testDBPassword,
		Name:     testDBName,
		SSLMode:  "disable",
	}

	var db *sqlx.DB
	err = pool.Retry(func() error {
		var retryErr error
		db, retryErr = sqlx.Open(dbCfg.DriverName(), dbCfg.DSN())
		if retryErr != nil {
			return retryErr
		}
		if retryErr = db.Ping(); retryErr != nil {
			return multierr.Append(retryErr, db.Close())
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to %s: %w", driver, err)
	}

	closeAndPurge := func() error {
		return multierr.Append(db.Close(), cleanup())
	}
	return db, closeAndPurge, nil
}
