package repository

import (
	"context"

	"shopfront/internal/domain"
)

// ProductRepository exposes persistence operations for catalog entries.
// Lookups of missing records return an error wrapping domain.ErrNotFound.
type ProductRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, id domain.ID) (*domain.Product, error)
	Replace(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id domain.ID) error
	List(ctx context.Context) ([]domain.Product, error)
	Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}
