package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
	"shopfront/internal/repository"
	"shopfront/internal/storage"
)

var (
	ErrProductNotFound = domain.Errorf(domain.ErrNotFound, "Product does not exist")
	ErrNotProductOwner = domain.Errorf(domain.ErrForbidden, "You are not the owner of this product")
	ErrForeignImage    = domain.Errorf(domain.ErrValidation, "image must be uploaded through /product/image")
)

// ProductService coordinates catalog operations.
type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Add(ctx context.Context, seller domain.Identity, in domain.ProductInput) (*domain.Product, error)
	Edit(ctx context.Context, seller domain.Identity, id domain.ID, in domain.ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, seller domain.Identity, id domain.ID) error
	Detail(ctx context.Context, id domain.ID) (*domain.Product, error)
	SellerList(ctx context.Context, seller domain.Identity, q domain.PageQuery) ([]domain.ProductSummary, error)
	BuyerList(ctx context.Context, q domain.PageQuery) ([]domain.ProductSummary, error)
}

// ImageConfig enables image ownership checks and cleanup. A nil Store
// disables both.
type ImageConfig struct {
	Store  storage.Service
	Prefix string
}

type productService struct {
	products repository.ProductRepository
	images   ImageConfig
	logger   *logrus.Logger
}

func NewProductService(products repository.ProductRepository, images ImageConfig, logger *logrus.Logger) ProductService {
	if logger == nil {
		logger = logrus.New()
	}
	return &productService{
		products: products,
		images:   images,
		logger:   logger,
	}
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func (s *productService) Add(ctx context.Context, seller domain.Identity, in domain.ProductInput) (*domain.Product, error) {
	if err := s.validate(seller, &in); err != nil {
		return nil, err
	}
	product := &domain.Product{SellerID: seller.ID}
	in.Apply(product)
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Edit(ctx context.Context, seller domain.Identity, id domain.ID, in domain.ProductInput) (*domain.Product, error) {
	if err := s.validate(seller, &in); err != nil {
		return nil, err
	}
	product, err := s.owned(ctx, seller, id)
	if err != nil {
		return nil, err
	}
	previous := product.Image
	in.Apply(product)
	if err := s.products.Replace(ctx, product); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if previous != nil && (product.Image == nil || *product.Image != *previous) {
		s.removeImage(ctx, product.ID, product.SellerID, *previous)
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, seller domain.Identity, id domain.ID) error {
	product, err := s.owned(ctx, seller, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if product.Image != nil {
		s.removeImage(ctx, product.ID, product.SellerID, *product.Image)
	}
	return nil
}

func (s *productService) Detail(ctx context.Context, id domain.ID) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) SellerList(ctx context.Context, seller domain.Identity, q domain.PageQuery) ([]domain.ProductSummary, error) {
	if seller.ID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return s.page(ctx, seller.ID, q)
}

func (s *productService) BuyerList(ctx context.Context, q domain.PageQuery) ([]domain.ProductSummary, error) {
	return s.page(ctx, domain.ID{}, q)
}

func (s *productService) page(ctx context.Context, seller domain.ID, q domain.PageQuery) ([]domain.ProductSummary, error) {
	if err := domain.Validate(q); err != nil {
		return nil, err
	}
	products, err := s.products.Search(ctx, domain.ProductFilter{
		SellerID: seller,
		Search:   q.SearchText,
		Offset:   q.Offset(),
		Limit:    q.Limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.ProductSummary, len(products))
	for i := range products {
		out[i] = domain.Summarize(products[i])
	}
	return out, nil
}

// owned loads a product and applies the ownership guard.
func (s *productService) owned(ctx context.Context, seller domain.Identity, id domain.ID) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !auth.IsOwner(product.SellerID, seller.ID) {
		return nil, ErrNotProductOwner
	}
	return product, nil
}

func (s *productService) validate(seller domain.Identity, in *domain.ProductInput) error {
	in.Normalize()
	if err := domain.Validate(*in); err != nil {
		return err
	}
	if in.Image != nil && s.images.Store != nil && !storage.OwnedBy(*in.Image, s.images.Prefix, seller.ID.String()) {
		return ErrForeignImage
	}
	return nil
}

// removeImage deletes a stored image best effort. Keys outside the seller's
// own prefix are left alone.
func (s *productService) removeImage(ctx context.Context, productID, sellerID domain.ID, key string) {
	if s.images.Store == nil || !storage.OwnedBy(key, s.images.Prefix, sellerID.String()) {
		return
	}
	if err := s.images.Store.Delete(ctx, key); err != nil {
		s.logger.WithError(fmt.Errorf("product %s: %w", productID, err)).Warn("remove product image")
	}
}
