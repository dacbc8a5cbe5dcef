package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
	"shopfront/internal/repository"
	"shopfront/internal/repository/sqlite"
	"shopfront/internal/service"
)

type testServer struct {
	router   *gin.Engine
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	tokens   *auth.Tokens
}

type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memImages) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memImages) GetObjectURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://images.example.com/" + key + "?signed", nil
}

func newTestServer(t *testing.T, images *memImages) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &testServer{
		users:    sqlite.NewUserRepository(db),
		products: sqlite.NewProductRepository(db),
		carts:    sqlite.NewCartRepository(db),
		tokens:   auth.NewTokens("test-secret", time.Hour),
	}
	require.NoError(t, s.users.Init(ctx))
	require.NoError(t, s.products.Init(ctx))
	require.NoError(t, s.carts.Init(ctx))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := Options{
		Users:         service.NewUserService(s.users, s.tokens),
		Carts:         service.NewCartService(s.carts, s.products),
		Authenticator: auth.NewAuthenticator(s.tokens, s.users),
		ImagePrefix:   "product-images",
		Logger:        logger,
	}
	imageCfg := service.ImageConfig{Prefix: "product-images"}
	if images != nil {
		opts.Images = images
		imageCfg.Store = images
	}
	opts.Products = service.NewProductService(s.products, imageCfg, logger)

	s.router = gin.New()
	NewHandler(opts).RegisterRoutes(s.router)
	return s
}

// account stores a user and returns it with a bearer header value.
func (s *testServer) account(t *testing.T, email string, role domain.Role) (domain.User, string) {
	t.Helper()
	user := domain.User{Email: email, PasswordHash: "unused", Role: role}
	require.NoError(t, s.users.Create(context.Background(), &user))
	token, _, err := s.tokens.Issue(user)
	require.NoError(t, err)
	return user, "Bearer " + token
}

func (s *testServer) do(t *testing.T, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func productBody(name string, quantity int) map[string]any {
	return map[string]any{
		"name":        name,
		"brand":       "Acme",
		"price":       19.5,
		"quantity":    quantity,
		"category":    "clothing",
		"description": "a plain cotton shirt",
	}
}

func (s *testServer) addProduct(t *testing.T, seller domain.User, name string, quantity int) domain.Product {
	t.Helper()
	price := 19.5
	p := domain.Product{
		Name:        name,
		Brand:       "Acme",
		Price:       price,
		Quantity:    quantity,
		Category:    "clothing",
		Description: "a plain cotton shirt",
		SellerID:    seller.ID,
	}
	require.NoError(t, s.products.Create(context.Background(), &p))
	return p
}

func TestProtectedRoutesRequireCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	seller, _ := s.account(t, "seller@example.com", domain.RoleSeller)
	product := s.addProduct(t, seller, "Blue Shirt", 5)
	pid := product.ID.String()

	// expiry is truncated to whole seconds, so a 1ns lifetime is already past
	expired := auth.NewTokens("test-secret", time.Nanosecond)
	stale, _, err := expired.Issue(seller)
	require.NoError(t, err)

	ghost, _, err := s.tokens.Issue(domain.User{ID: domain.NewID(), Email: "ghost@example.com", Role: domain.RoleSeller})
	require.NoError(t, err)

	headers := []string{
		"",
		"Bearer",
		"Token " + ghost,
		"Bearer " + ghost + " extra",
		"Bearer not-a-token",
		"Bearer " + stale,
		"Bearer " + ghost,
	}
	routes := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/product/list", nil},
		{http.MethodPost, "/product/add", productBody("Intruder", 1)},
		{http.MethodDelete, "/product/delete/" + pid, nil},
		{http.MethodPut, "/product/edit/" + pid, productBody("Intruder", 1)},
		{http.MethodGet, "/product/detail/" + pid, nil},
		{http.MethodPost, "/product/seller/list", map[string]any{"page": 1, "limit": 10}},
		{http.MethodPost, "/product/buyer/list", map[string]any{"page": 1, "limit": 10}},
		{http.MethodPost, "/product/image", nil},
		{http.MethodPost, "/cart/add/item", map[string]any{"productId": pid, "orderedQuantity": 1}},
		{http.MethodDelete, "/cart/flush", nil},
		{http.MethodDelete, "/cart/item/delete/" + domain.NewID().String(), nil},
	}

	for _, route := range routes {
		for _, header := range headers {
			rec := s.do(t, route.method, route.path, header, route.body)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s with %q", route.method, route.path, header)
			assert.NotEmpty(t, decode(t, rec)["message"])
		}
	}

	all, err := s.products.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Blue Shirt", all[0].Name)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t, nil)
	_, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)
	_, buyerAuth := s.account(t, "buyer@example.com", domain.RoleBuyer)

	rec := s.do(t, http.MethodPost, "/product/add", buyerAuth, productBody("Blue Shirt", 5))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "seller")

	rec = s.do(t, http.MethodPost, "/product/buyer/list", sellerAuth, map[string]any{"page": 1, "limit": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/cart/flush", sellerAuth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// any role may list; the scheme is case-insensitive
	rec = s.do(t, http.MethodPost, "/product/list", "bearer"+strings.TrimPrefix(buyerAuth, "Bearer"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	_, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)
	_, buyerAuth := s.account(t, "buyer@example.com", domain.RoleBuyer)

	rec := s.do(t, http.MethodPost, "/product/add", sellerAuth, productBody("Blue Shirt", 5))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product is added successfully", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/product/list", buyerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["productDetails"].([]any)
	require.Len(t, list, 1)
	entry := list[0].(map[string]any)
	assert.NotContains(t, entry, "sellerId")
	id := entry["_id"].(string)

	rec = s.do(t, http.MethodGet, "/product/detail/"+strings.ToUpper(id), buyerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode(t, rec)["productDetails"].(map[string]any)
	assert.Equal(t, "Blue Shirt", details["name"])
	assert.NotContains(t, details, "imageUrl")

	bad := productBody("", 5)
	rec = s.do(t, http.MethodPut, "/product/edit/"+id, sellerAuth, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "name is required")

	rec = s.do(t, http.MethodDelete, "/product/delete/"+id, sellerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/product/detail/"+id, buyerAuth, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product does not exist", decode(t, rec)["message"])

	for _, bad := range []string{"not-a-mongo-id", "000000000000000000000000"} {
		rec = s.do(t, http.MethodGet, "/product/detail/"+bad, buyerAuth, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, "Invalid id", decode(t, rec)["message"])
	}
}

func TestSellerOwnership(t *testing.T) {
	s := newTestServer(t, nil)
	owner, _ := s.account(t, "owner@example.com", domain.RoleSeller)
	_, otherAuth := s.account(t, "other@example.com", domain.RoleSeller)
	product := s.addProduct(t, owner, "Blue Shirt", 5)
	path := product.ID.String()

	rec := s.do(t, http.MethodPut, "/product/edit/"+path, otherAuth, productBody("Stolen", 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You are not the owner of this product", decode(t, rec)["message"])

	rec = s.do(t, http.MethodDelete, "/product/delete/"+path, otherAuth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	got, err := s.products.Get(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Shirt", got.Name)
	assert.Equal(t, 5, got.Quantity)

	rec = s.do(t, http.MethodPut, "/product/edit/"+domain.NewID().String(), otherAuth, productBody("Ghost", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditReplacesFields(t *testing.T) {
	s := newTestServer(t, nil)
	seller, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)
	product := s.addProduct(t, seller, "Blue Shirt", 5)

	body := map[string]any{
		"name":         "Red Shoe",
		"brand":        "Stride",
		"price":        0,
		"quantity":     9,
		"category":     "shoes",
		"freeShipping": true,
		"description":  "leather running shoe",
	}
	rec := s.do(t, http.MethodPut, "/product/edit/"+product.ID.String(), sellerAuth, body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully edited", decode(t, rec)["message"])

	got, err := s.products.Get(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Shoe", got.Name)
	assert.Equal(t, "Stride", got.Brand)
	assert.Zero(t, got.Price)
	assert.Equal(t, 9, got.Quantity)
	assert.Equal(t, "shoes", got.Category)
	assert.True(t, got.FreeShipping)
	assert.Equal(t, "leather running shoe", got.Description)
	assert.True(t, got.SellerID.Equal(seller.ID))
}

func TestPaginatedLists(t *testing.T) {
	s := newTestServer(t, nil)
	seller, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)
	other, _ := s.account(t, "other@example.com", domain.RoleSeller)
	_, buyerAuth := s.account(t, "buyer@example.com", domain.RoleBuyer)

	for i := 0; i < 15; i++ {
		s.addProduct(t, seller, "Blue Shirt", 5)
	}
	for i := 0; i < 3; i++ {
		s.addProduct(t, other, "Green Hat", 5)
	}

	rec := s.do(t, http.MethodPost, "/product/seller/list", sellerAuth, map[string]any{"page": 2, "limit": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["productList"], 5)

	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": 2, "limit": 10})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["productList"], 8)

	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": 1, "limit": 10, "searchText": "blue"})
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["productList"].([]any)
	require.Len(t, items, 10)
	first := items[0].(map[string]any)
	assert.Equal(t, "Blue Shirt", first["name"])
	assert.NotContains(t, first, "quantity")
	assert.NotContains(t, first, "sellerId")

	s.addProduct(t, other, "ÉCLAIR Box", 5)
	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": 1, "limit": 10, "searchText": "éclair"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["productList"], 1)

	rec = s.do(t, http.MethodPost, "/product/seller/list", sellerAuth, map[string]any{"page": 1, "limit": 10, "searchText": "hat"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["productList"])

	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": 0, "limit": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": 1, "limit": 101})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// a page far past the end must not wrap around to the first page
	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": int64(1) << 62, "limit": 4})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "page must be less than or equal to")

	rec = s.do(t, http.MethodPost, "/product/buyer/list", buyerAuth, map[string]any{"page": domain.MaxPage, "limit": 100})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["productList"])
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	seller, _ := s.account(t, "seller@example.com", domain.RoleSeller)
	buyer, buyerAuth := s.account(t, "buyer@example.com", domain.RoleBuyer)
	other, otherAuth := s.account(t, "other@example.com", domain.RoleBuyer)
	product := s.addProduct(t, seller, "Blue Shirt", 5)
	pid := product.ID.String()

	rec := s.do(t, http.MethodPost, "/cart/add/item", buyerAuth, map[string]any{"productId": pid, "orderedQuantity": 6})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["message"])
	n, err := s.carts.DeleteByBuyer(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	rec = s.do(t, http.MethodPost, "/cart/add/item", buyerAuth, map[string]any{"productId": "xyz", "orderedQuantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/add/item", buyerAuth, map[string]any{"productId": domain.NewID().String(), "orderedQuantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/add/item", buyerAuth, map[string]any{"productId": pid, "orderedQuantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "item added successfully", decode(t, rec)["message"])

	item := &domain.CartItem{BuyerID: other.ID, ProductID: product.ID, OrderedQuantity: 1}
	require.NoError(t, s.carts.Add(context.Background(), item))

	rec = s.do(t, http.MethodDelete, "/cart/item/delete/"+item.ID.String(), buyerAuth, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, err = s.carts.GetOwned(context.Background(), item.ID, other.ID)
	require.NoError(t, err)

	rec = s.do(t, http.MethodDelete, "/cart/item/delete/"+item.ID.String(), otherAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cart item is removed successfully", decode(t, rec)["message"])

	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodDelete, "/cart/flush", buyerAuth, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Cart is cleared successfully", decode(t, rec)["message"])
	}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, nil)

	creds := map[string]any{"email": "new@example.com", "password": "password1", "role": "seller"}
	rec := s.do(t, http.MethodPost, "/user/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/user/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]any{"email": "new@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/user/login", "", map[string]any{"email": "new@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	token := body["accessToken"].(string)
	assert.Equal(t, "seller", body["userDetails"].(map[string]any)["role"])

	rec = s.do(t, http.MethodPost, "/product/add", "Bearer "+token, productBody("Blue Shirt", 5))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func uploadRequest(t *testing.T, authHeader, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/product/image", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", authHeader)
	return req
}

func TestImageUpload(t *testing.T) {
	images := &memImages{}
	s := newTestServer(t, images)
	seller, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, sellerAuth, "shirt.exe", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, sellerAuth, "shirt.PNG", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, rec.Code)
	key := decode(t, rec)["image"].(string)
	assert.True(t, strings.HasPrefix(key, "product-images/"+seller.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, []byte("png-bytes"), images.objects[key])

	body := productBody("Blue Shirt", 5)
	body["image"] = key
	rec = s.do(t, http.MethodPost, "/product/add", sellerAuth, body)
	require.Equal(t, http.StatusOK, rec.Code)

	all, err := s.products.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	rec = s.do(t, http.MethodGet, "/product/detail/"+all[0].ID.String(), sellerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	details := decode(t, rec)["productDetails"].(map[string]any)
	assert.Equal(t, "https://images.example.com/"+key+"?signed", details["imageUrl"])

	rec = s.do(t, http.MethodDelete, "/product/delete/"+all[0].ID.String(), sellerAuth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, images.objects, key)
}

func TestImageUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t, nil)
	_, sellerAuth := s.account(t, "seller@example.com", domain.RoleSeller)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, uploadRequest(t, sellerAuth, "shirt.png", []byte("png")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthMetricsAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
