package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

const createProductsTable = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	brand TEXT NOT NULL,
	price REAL NOT NULL,
	quantity INTEGER NOT NULL,
	category TEXT NOT NULL,
	free_shipping INTEGER NOT NULL DEFAULT 0,
	description TEXT NOT NULL,
	image TEXT NULL,
	seller_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_seller_id ON products(seller_id);
`

const productColumns = `id, name, brand, price, quantity, category, free_shipping, description, image, seller_id, created_at, updated_at`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createProductsTable); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}
	return nil
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID.IsZero() {
		product.ID = domain.NewID()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO products (`+productColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Brand,
		product.Price,
		product.Quantity,
		product.Category,
		product.FreeShipping,
		product.Description,
		nullString(product.Image),
		product.SellerID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id domain.ID) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

// Replace overwrites every mutable column in a single statement. seller_id and
// created_at are never touched.
func (r *ProductRepository) Replace(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE products
SET name=?, brand=?, price=?, quantity=?, category=?, free_shipping=?, description=?, image=?, updated_at=?
WHERE id=?`,
		product.Name,
		product.Brand,
		product.Price,
		product.Quantity,
		product.Category,
		product.FreeShipping,
		product.Description,
		nullString(product.Image),
		product.UpdatedAt,
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return expectAffected(res, "product")
}

func (r *ProductRepository) Delete(ctx context.Context, id domain.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return expectAffected(res, "product")
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Search applies the seller restriction and a case-insensitive literal
// substring match on name, then the offset window over insertion order.
func (r *ProductRepository) Search(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if !filter.SellerID.IsZero() {
		where = append(where, "seller_id = ?")
		args = append(args, filter.SellerID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, "instr("+foldCaseFunc+"(name), "+foldCaseFunc+"(?)) > 0")
		args = append(args, search)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid ASC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]domain.Product, error) {
	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, rows.Err()
}

func scanProduct(scanner interface {
	Scan(dest ...any) error
}) (*domain.Product, error) {
	var (
		product domain.Product
		image   sql.NullString
	)
	if err := scanner.Scan(
		&product.ID,
		&product.Name,
		&product.Brand,
		&product.Price,
		&product.Quantity,
		&product.Category,
		&product.FreeShipping,
		&product.Description,
		&image,
		&product.SellerID,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if image.Valid {
		product.Image = &image.String
	}
	return &product, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
