package service

import (
	"context"
	"errors"

	"shopfront/internal/domain"
	"shopfront/internal/repository"
)

var (
	ErrQuantityExceedsStock = domain.Errorf(domain.ErrForbidden, "Ordered quantity exceeds available stock")
	ErrNotCartOwner         = domain.Errorf(domain.ErrForbidden, "You are not the owner of this cart item")
	ErrInvalidProductID     = domain.Errorf(domain.ErrInvalidID, "Invalid product id")
)

// CartService manages buyer carts.
type CartService interface {
	AddItem(ctx context.Context, buyer domain.Identity, in domain.CartItemInput) (*domain.CartItem, error)
	Flush(ctx context.Context, buyer domain.Identity) (int64, error)
	RemoveItem(ctx context.Context, buyer domain.Identity, id domain.ID) error
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{
		carts:    carts,
		products: products,
	}
}

// AddItem checks the ordered quantity against current stock and inserts a new
// line. The check is advisory: stock is not reserved.
func (s *cartService) AddItem(ctx context.Context, buyer domain.Identity, in domain.CartItemInput) (*domain.CartItem, error) {
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	productID, err := domain.ParseID(in.ProductID)
	if err != nil {
		return nil, ErrInvalidProductID
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if in.OrderedQuantity > product.Quantity {
		return nil, ErrQuantityExceedsStock
	}

	item := &domain.CartItem{
		BuyerID:         buyer.ID,
		ProductID:       product.ID,
		OrderedQuantity: in.OrderedQuantity,
	}
	if err := s.carts.Add(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) Flush(ctx context.Context, buyer domain.Identity) (int64, error) {
	return s.carts.DeleteByBuyer(ctx, buyer.ID)
}

// RemoveItem rejects lines that do not exist and lines of other buyers alike.
func (s *cartService) RemoveItem(ctx context.Context, buyer domain.Identity, id domain.ID) error {
	if _, err := s.carts.GetOwned(ctx, id, buyer.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotCartOwner
		}
		return err
	}
	if err := s.carts.DeleteOwned(ctx, id, buyer.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotCartOwner
		}
		return err
	}
	return nil
}
