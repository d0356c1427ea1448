package user

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"config_client/internal/observability"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// UserRepositoryInterface is the read side of the user store.
// Implementations must be safe for concurrent use.
type UserRepositoryInterface interface {
	// FindAll returns every user in repository order. An empty store yields an empty slice.
	FindAll(ctx context.Context) ([]*User, error)
	// FindOne returns ErrUserNotFound when no user has the given id.
	FindOne(ctx context.Context, id int64) (*User, error)
}

type UserRepository struct {
	db      *sqlx.DB
	metrics *observability.Metrics
}

func NewUserRepository(db *sqlx.DB, metrics *observability.Metrics) UserRepositoryInterface {
	return &UserRepository{
		db:      db,
		metrics: metrics,
	}
}

// FindAll retrieves all users ordered by id
func (r *UserRepository) FindAll(ctx context.Context) ([]*User, error) {
	query := `
		SELECT id, username, email, first_name, last_name, created_at
		FROM users
		ORDER BY id
	`

	start := time.Now()
	users := []*User{}
	err := r.db.SelectContext(ctx, &users, query)
	r.metrics.ObserveDBQuery("SELECT", time.Since(start))

	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		return nil, err
	}

	return users, nil
}

// FindOne retrieves a user by ID
func (r *UserRepository) FindOne(ctx context.Context, id int64) (*User, error) {
	query := r.db.Rebind(`
		SELECT id, username, email, first_name, last_name, created_at
		FROM users
		WHERE id = ?
	`)

	start := time.Now()
	user := &User{}
	err := r.db.GetContext(ctx, user, query, id)
	r.metrics.ObserveDBQuery("SELECT", time.Since(start))

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logrus.WithField("user_id", id).Debug("User not found")
			return nil, ErrUserNotFound
		}
		logrus.WithError(err).WithField("user_id", id).Error("Failed to get user by ID")
		return nil, err
	}

	return user, nil
}
