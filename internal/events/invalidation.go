package events

import (
	"context"

	"config_client/internal/observability"

	"github.com/sirupsen/logrus"
)

// Evicter drops cached user data. user.CachedUserRepository implements it.
type Evicter interface {
	Evict(ctx context.Context, id int64) error
}

// NewCacheInvalidator returns a Handler that evicts the cache entries touched by an event.
func NewCacheInvalidator(e Evicter, metrics *observability.Metrics) Handler {
	return func(ctx context.Context, ev UserEvent) error {
		if err := e.Evict(ctx, ev.UserID); err != nil {
			return err
		}

		metrics.CacheEviction(ev.Action)
		logrus.WithFields(logrus.Fields{
			"user_id": ev.UserID,
			"action":  ev.Action,
		}).Info("Evicted cached user")
		return nil
	}
}
