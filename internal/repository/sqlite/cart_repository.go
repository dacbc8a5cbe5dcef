package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

// product_id deliberately has no foreign key: cart lines are weak references
// and survive product deletion.
const createCartItemsTable = `
CREATE TABLE IF NOT EXISTS cart_items (
	id TEXT PRIMARY KEY,
	buyer_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	ordered_quantity INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cart_items_buyer_id ON cart_items(buyer_id);
`

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) repository.CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCartItemsTable); err != nil {
		return fmt.Errorf("create cart_items table: %w", err)
	}
	return nil
}

func (r *CartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	if item.ID.IsZero() {
		item.ID = domain.NewID()
	}
	item.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO cart_items (id, buyer_id, product_id, ordered_quantity, created_at)
VALUES (?, ?, ?, ?, ?)`,
		item.ID,
		item.BuyerID,
		item.ProductID,
		item.OrderedQuantity,
		item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (r *CartRepository) GetOwned(ctx context.Context, id, buyerID domain.ID) (*domain.CartItem, error) {
	var item domain.CartItem
	err := r.db.QueryRowContext(ctx, `
SELECT id, buyer_id, product_id, ordered_quantity, created_at
FROM cart_items
WHERE id = ? AND buyer_id = ?`,
		id, buyerID,
	).Scan(&item.ID, &item.BuyerID, &item.ProductID, &item.OrderedQuantity, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cart item: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan cart item: %w", err)
	}
	return &item, nil
}

func (r *CartRepository) DeleteOwned(ctx context.Context, id, buyerID domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ? AND buyer_id = ?`, id, buyerID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return expectAffected(res, "cart item")
}

func (r *CartRepository) DeleteByBuyer(ctx context.Context, buyerID domain.ID) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE buyer_id = ?`, buyerID)
	if err != nil {
		return 0, fmt.Errorf("flush cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("flush cart rows affected: %w", err)
	}
	return n, nil
}
