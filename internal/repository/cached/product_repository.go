package cached

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

// Cache is the subset of the redis cache used for product details.
type Cache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ProductRepository is a read-through cache for single product lookups.
// Writes go to the underlying store first and then drop the cached entry.
// Cache failures never fail a request.
type ProductRepository struct {
	repository.ProductRepository
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewProductRepository(next repository.ProductRepository, cache Cache, ttl time.Duration, logger *logrus.Logger) *ProductRepository {
	if logger == nil {
		logger = logrus.New()
	}
	return &ProductRepository{
		ProductRepository: next,
		cache:             cache,
		ttl:               ttl,
		logger:            logger,
	}
}

func productKey(id domain.ID) string { return "product:" + id.String() }

func (r *ProductRepository) Get(ctx context.Context, id domain.ID) (*domain.Product, error) {
	raw, err := r.cache.GetString(ctx, productKey(id))
	if err == nil {
		var p domain.Product
		if jsonErr := json.Unmarshal([]byte(raw), &p); jsonErr == nil {
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.WithError(err).Warn("product cache read failed")
	}

	p, err := r.ProductRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(p); err == nil {
		if err := r.cache.SetString(ctx, productKey(id), string(b), r.ttl); err != nil {
			r.logger.WithError(err).Warn("product cache backfill failed")
		}
	}
	return p, nil
}

func (r *ProductRepository) Replace(ctx context.Context, product *domain.Product) error {
	if err := r.ProductRepository.Replace(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ID)
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id domain.ID) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id domain.ID) {
	if err := r.cache.Delete(ctx, productKey(id)); err != nil {
		r.logger.WithError(err).Warn("product cache invalidation failed")
	}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
