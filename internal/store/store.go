// Package store opens the configured persistence backend and hands out its
// repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/repository"
	"shopfront/internal/repository/cached"
	"shopfront/internal/repository/mongodb"
	"shopfront/internal/repository/sqlite"
)

// Store groups the repositories of one backend.
type Store struct {
	Users    repository.UserRepository
	Products repository.ProductRepository
	Carts    repository.CartRepository

	closers []func() error
}

// Open connects to the backend selected by cfg.Database.Driver and creates
// tables or indexes. When cfg.Redis.Addr is set, product lookups go through a
// redis read-through cache; an unreachable redis only disables the cache.
func Open(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*Store, error) {
	var (
		s   *Store
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		s, err = openSQLite(cfg.Database.Path)
	case config.DriverMongo:
		s, err = openMongo(ctx, cfg.Database.URI, cfg.Database.Name)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := s.init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		rc := cache.New(cfg.Redis.Addr)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			logger.Warnf("redis unavailable, product cache disabled: %v", err)
			_ = rc.Close()
		} else {
			ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
			s.Products = cached.NewProductRepository(s.Products, rc, ttl, logger)
			s.closers = append(s.closers, rc.Close)
			logger.Infof("caching product details in redis %s (ttl %s)", cfg.Redis.Addr, ttl)
		}
	}
	return s, nil
}

func openSQLite(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return fromSQL(db), nil
}

func fromSQL(db *sql.DB) *Store {
	return &Store{
		Users:    sqlite.NewUserRepository(db),
		Products: sqlite.NewProductRepository(db),
		Carts:    sqlite.NewCartRepository(db),
		closers:  []func() error{db.Close},
	}
}

func openMongo(ctx context.Context, uri, name string) (*Store, error) {
	client, db, err := mongodb.Open(ctx, uri, name)
	if err != nil {
		return nil, err
	}
	return fromMongo(client, db), nil
}

func fromMongo(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		Users:    mongodb.NewUserRepository(db),
		Products: mongodb.NewProductRepository(db),
		Carts:    mongodb.NewCartRepository(db),
		closers: []func() error{func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		}},
	}
}

func (s *Store) init(ctx context.Context) error {
	if err := s.Users.Init(ctx); err != nil {
		return fmt.Errorf("init user repository: %w", err)
	}
	if err := s.Products.Init(ctx); err != nil {
		return fmt.Errorf("init product repository: %w", err)
	}
	if err := s.Carts.Init(ctx); err != nil {
		return fmt.Errorf("init cart repository: %w", err)
	}
	return nil
}

// Close releases backend connections in reverse order of acquisition.
func (s *Store) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}
