package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
	"shopfront/internal/repository"
	"shopfront/internal/repository/sqlite"
)

type fixture struct {
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	tokens   *auth.Tokens
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users:    sqlite.NewUserRepository(db),
		products: sqlite.NewProductRepository(db),
		carts:    sqlite.NewCartRepository(db),
		tokens:   auth.NewTokens("test-secret", time.Hour),
	}
	require.NoError(t, f.users.Init(ctx))
	require.NoError(t, f.products.Init(ctx))
	require.NoError(t, f.carts.Init(ctx))
	return f
}

func identity(role domain.Role) domain.Identity {
	return domain.Identity{ID: domain.NewID(), Email: string(role) + "@example.com", Role: role}
}

func productInput(name string, quantity int) domain.ProductInput {
	price := 9.99
	return domain.ProductInput{
		Name:        name,
		Brand:       "Acme",
		Price:       &price,
		Quantity:    quantity,
		Category:    "clothing",
		Description: "a plain cotton shirt",
	}
}

type memStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memStorage) Upload(context.Context, string, io.Reader, string) error { return nil }

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memStorage) GetObjectURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.com/" + key, nil
}

func TestUserServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.users, f.tokens)

	user, err := svc.Register(ctx, domain.RegisterInput{Email: " Seller@Example.com ", Password: "password1", Role: "seller"})
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = svc.Register(ctx, domain.RegisterInput{Email: "seller@example.com", Password: "password2", Role: "buyer"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	session, err := svc.Login(ctx, domain.LoginInput{Email: "SELLER@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, domain.RoleSeller, session.User.Role)

	claims, err := f.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", claims.Email)

	_, err = svc.Login(ctx, domain.LoginInput{Email: "seller@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Login(ctx, domain.LoginInput{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestUserServiceRegisterValidation(t *testing.T) {
	svc := NewUserService(newFixture(t).users, auth.NewTokens("s", time.Hour))

	_, err := svc.Register(context.Background(), domain.RegisterInput{Email: "not-an-email", Password: "short", Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductServiceOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProductService(f.products, ImageConfig{}, nil)
	owner := identity(domain.RoleSeller)
	other := identity(domain.RoleSeller)

	product, err := svc.Add(ctx, owner, productInput("Blue Shirt", 5))
	require.NoError(t, err)
	assert.True(t, product.SellerID.Equal(owner.ID))

	_, err = svc.Edit(ctx, other, product.ID, productInput("Hijacked", 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, other, product.ID), domain.ErrForbidden)

	got, err := svc.Detail(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Shirt", got.Name)

	_, err = svc.Edit(ctx, owner, domain.NewID(), productInput("Missing", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, owner, product.ID))
	_, err = svc.Detail(ctx, product.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductServiceEditReplacesFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProductService(f.products, ImageConfig{}, nil)
	seller := identity(domain.RoleSeller)

	in := productInput("Blue Shirt", 5)
	shipping := true
	in.FreeShipping = &shipping
	img := "https://cdn.example.com/shirt.png"
	in.Image = &img
	product, err := svc.Add(ctx, seller, in)
	require.NoError(t, err)

	edit := productInput("Red Shirt", 2)
	edit.Category = "shoes"
	_, err = svc.Edit(ctx, seller, product.ID, edit)
	require.NoError(t, err)

	got, err := svc.Detail(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Shirt", got.Name)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, "shoes", got.Category)
	assert.False(t, got.FreeShipping)
	require.NotNil(t, got.Image)
	assert.Equal(t, img, *got.Image)
	assert.True(t, got.SellerID.Equal(seller.ID))
}

func TestProductServiceImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	images := &memStorage{}
	svc := NewProductService(f.products, ImageConfig{Store: images, Prefix: "product-images"}, nil)
	seller := identity(domain.RoleSeller)

	foreign := "product-images/" + domain.NewID().String() + "/a.png"
	in := productInput("Lamp", 1)
	in.Image = &foreign
	_, err := svc.Add(ctx, seller, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	own := "product-images/" + seller.ID.String() + "/b.png"
	in.Image = &own
	product, err := svc.Add(ctx, seller, in)
	require.NoError(t, err)

	// an edit without an image keeps the stored one
	_, err = svc.Edit(ctx, seller, product.ID, productInput("Lamp", 2))
	require.NoError(t, err)
	assert.Empty(t, images.deleted)

	replacement := "product-images/" + seller.ID.String() + "/c.png"
	edit := productInput("Lamp", 2)
	edit.Image = &replacement
	_, err = svc.Edit(ctx, seller, product.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, []string{own}, images.deleted)

	_, err = svc.Edit(ctx, seller, product.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, []string{own}, images.deleted)

	require.NoError(t, svc.Delete(ctx, seller, product.ID))
	assert.Equal(t, []string{own, replacement}, images.deleted)
}

func TestProductServiceLists(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewProductService(f.products, ImageConfig{}, nil)
	seller := identity(domain.RoleSeller)
	other := identity(domain.RoleSeller)

	for i := 0; i < 12; i++ {
		in := productInput("Blue Shirt", 3)
		in.Description = strings.Repeat("d", 200)
		_, err := svc.Add(ctx, seller, in)
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, other, productInput("Green Hat", 3))
	require.NoError(t, err)

	page2, err := svc.SellerList(ctx, seller, domain.PageQuery{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	for _, s := range page2 {
		assert.Len(t, []rune(s.Description), domain.SummaryDescriptionLimit)
	}

	hits, err := svc.BuyerList(ctx, domain.PageQuery{Page: 1, Limit: 50, SearchText: "blue"})
	require.NoError(t, err)
	assert.Len(t, hits, 12)

	hats, err := svc.BuyerList(ctx, domain.PageQuery{Page: 1, Limit: 10, SearchText: "HAT"})
	require.NoError(t, err)
	assert.Len(t, hats, 1)

	_, err = svc.BuyerList(ctx, domain.PageQuery{Page: 0, Limit: 101})
	assert.ErrorIs(t, err, domain.ErrValidation)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 13)
}

func TestCartService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	products := NewProductService(f.products, ImageConfig{}, nil)
	svc := NewCartService(f.carts, f.products)
	seller := identity(domain.RoleSeller)
	buyer := identity(domain.RoleBuyer)
	other := identity(domain.RoleBuyer)

	product, err := products.Add(ctx, seller, productInput("Blue Shirt", 5))
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: product.ID.String(), OrderedQuantity: 6})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: "not-an-id", OrderedQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: domain.NewID().String(), OrderedQuantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: product.ID.String(), OrderedQuantity: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	first, err := svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: product.ID.String(), OrderedQuantity: 5})
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, buyer, domain.CartItemInput{ProductID: product.ID.String(), OrderedQuantity: 1})
	require.NoError(t, err)
	assert.False(t, first.ID.Equal(second.ID))

	assert.ErrorIs(t, svc.RemoveItem(ctx, other, first.ID), domain.ErrForbidden)
	_, err = f.carts.GetOwned(ctx, first.ID, buyer.ID)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(ctx, buyer, first.ID))
	assert.ErrorIs(t, svc.RemoveItem(ctx, buyer, first.ID), domain.ErrForbidden)

	n, err := svc.Flush(ctx, buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.Flush(ctx, buyer)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}
