package db

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestMigrate_UnknownDriver(t *testing.T) {
	conn := sqlx.NewDb(nil, "sqlite3")

	err := Migrate(context.Background(), conn)
	assert.ErrorContains(t, err, `no schema for driver "sqlite3"`)
}

func TestUsersTableDDL_CoversSupportedDrivers(t *testing.T) {
	for _, driver := range []string{"pgx", "mysql"} {
		ddl, ok := usersTableDDL[driver]
		assert.True(t, ok, driver)
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS users")
	}
}
