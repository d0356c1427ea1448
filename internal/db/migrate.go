package db

import (
	"context"
	"fmt"

	"config_client/internal/user"
	"config_client/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var usersTableDDL = map[string]string{
	"pgx": `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`,
	"mysql": `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`,
}

// Migrate creates the users table if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	ddl, ok := usersTableDDL[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	if err := utils.WithTransaction(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, ddl)
		return err
	}); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	logrus.Info("Database schema is up to date")
	return nil
}

// Seed inserts users in one transaction and returns their generated ids in input order.
func Seed(ctx context.Context, db *sqlx.DB, users []*user.User) ([]int64, error) {
	ids := make([]int64, 0, len(users))

	err := utils.WithTransaction(ctx, db, func(tx *sqlx.Tx) error {
		for _, u := range users {
			id, err := insertUser(ctx, tx, u)
			if err != nil {
				return fmt.Errorf("failed to seed user %q: %w", u.Username, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("count", len(ids)).Info("Seeded users")
	return ids, nil
}

func insertUser(ctx context.Context, tx *sqlx.Tx, u *user.User) (int64, error) {
	query := `
		INSERT INTO users (username, email, first_name, last_name)
		VALUES (?, ?, ?, ?)
	`

	if tx.DriverName() == "pgx" {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), u.Username, u.Email, u.FirstName, u.LastName).Scan(&id)
		return id, err
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(query), u.Username, u.Email, u.FirstName, u.LastName)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
