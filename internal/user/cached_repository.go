package user

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"config_client/internal/cache"
	"config_client/internal/observability"

	"github.com/sirupsen/logrus"
)

const cacheTimeout = 2 * time.Second

// ErrReadsDisabled is returned by repositories that only serve cache eviction.
var ErrReadsDisabled = errors.New("user reads are disabled")

// Cache is the subset of cache.UserCache the decorator needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Generation(ctx context.Context, key string) (int64, error)
	SetIfGeneration(ctx context.Context, key string, gen int64, data interface{}) (bool, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// CachedUserRepository reads through a Cache in front of another repository.
// Cache failures are logged and never fail a lookup.
type CachedUserRepository struct {
	next    UserRepositoryInterface
	cache   Cache
	metrics *observability.Metrics
}

func NewCachedUserRepository(next UserRepositoryInterface, c Cache, metrics *observability.Metrics) *CachedUserRepository {
	return &CachedUserRepository{
		next:    next,
		cache:   c,
		metrics: metrics,
	}
}

// NewCacheEvicter builds a CachedUserRepository with no backing store.
// Cache misses fail with ErrReadsDisabled.
func NewCacheEvicter(c Cache, metrics *observability.Metrics) *CachedUserRepository {
	return NewCachedUserRepository(noBackingStore{}, c, metrics)
}

type noBackingStore struct{}

func (noBackingStore) FindAll(context.Context) ([]*User, error) {
	return nil, ErrReadsDisabled
}

func (noBackingStore) FindOne(context.Context, int64) (*User, error) {
	return nil, ErrReadsDisabled
}

func (r *CachedUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	cachedData, gen, cacheable := r.lookup(ctx, cache.AllUsersKey)
	if cachedData != nil {
		users := []*User{}
		if json.Unmarshal(cachedData, &users) == nil {
			r.metrics.CacheHit("users")
			return users, nil
		}
	}
	r.metrics.CacheMiss("users")

	users, err := r.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	if cacheable {
		r.store(ctx, cache.AllUsersKey, gen, users)
	}
	return users, nil
}

func (r *CachedUserRepository) FindOne(ctx context.Context, id int64) (*User, error) {
	cacheKey := cache.UserKey(id)
	cachedData, gen, cacheable := r.lookup(ctx, cacheKey)
	if cachedData != nil {
		var user User
		if json.Unmarshal(cachedData, &user) == nil {
			r.metrics.CacheHit("user")
			return &user, nil
		}
	}
	r.metrics.CacheMiss("user")

	user, err := r.next.FindOne(ctx, id)
	if err != nil {
		// absence is not cached so a newly created user shows up immediately
		if !errors.Is(err, ErrUserNotFound) {
			logrus.WithError(err).WithField("user_id", id).Error("Failed to load user")
		}
		return nil, err
	}

	if cacheable {
		r.store(ctx, cacheKey, gen, user)
	}
	return user, nil
}

// lookup reads key together with the generation a refill has to match.
// cacheable is false when the cache could not be read.
func (r *CachedUserRepository) lookup(ctx context.Context, key string) (data []byte, gen int64, cacheable bool) {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	// the generation is read first: an eviction after this point fails the refill
	gen, err := r.cache.Generation(cctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to read cache generation")
		return nil, 0, false
	}

	data, err = r.cache.Get(cctx, key)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to read from cache")
		return nil, 0, false
	}
	return data, gen, true
}

// store gets its own timeout since the lookup context may be spent on the database.
func (r *CachedUserRepository) store(ctx context.Context, key string, gen int64, data interface{}) {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	stored, err := r.cache.SetIfGeneration(cctx, key, gen, data)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to set cache")
		return
	}
	if !stored {
		logrus.WithField("key", key).Debug("Cache refill skipped, key was evicted during lookup")
	}
}

// Evict drops the cached copy of one user together with the cached listing.
// Lookups already in flight will not write their result back.
func (r *CachedUserRepository) Evict(ctx context.Context, id int64) error {
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	return r.cache.Invalidate(cctx, cache.UserKey(id), cache.AllUsersKey)
}
