package repository

import (
	"context"

	"shopfront/internal/domain"
)

// CartRepository manages buyer cart lines.
type CartRepository interface {
	Init(ctx context.Context) error
	Add(ctx context.Context, item *domain.CartItem) error
	GetOwned(ctx context.Context, id, buyerID domain.ID) (*domain.CartItem, error)
	DeleteOwned(ctx context.Context, id, buyerID domain.ID) error
	DeleteByBuyer(ctx context.Context, buyerID domain.ID) (int64, error)
}
