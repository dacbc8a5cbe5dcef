package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shopfront/internal/domain"
)

// ProductResponse is the wire form of a product. The owning seller is not
// exposed.
type ProductResponse struct {
	ID           domain.ID `json:"_id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Price        float64   `json:"price"`
	Quantity     int       `json:"quantity"`
	Category     string    `json:"category"`
	FreeShipping bool      `json:"freeShipping"`
	Description  string    `json:"description"`
	Image        *string   `json:"image,omitempty"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

type ProductSummaryResponse struct {
	ID          domain.ID `json:"_id"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Price       float64   `json:"price"`
	Image       *string   `json:"image,omitempty"`
	Description string    `json:"description"`
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(products[i])
	}
	c.JSON(http.StatusOK, gin.H{"message": "success", "productDetails": resp})
}

func (h *Handler) addProduct(c *gin.Context) {
	var req domain.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.products.Add(c.Request.Context(), actingIdentity(c), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product is added successfully"})
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.products.Delete(c.Request.Context(), actingIdentity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully deleted"})
}

func (h *Handler) editProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	var req domain.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.products.Edit(c.Request.Context(), actingIdentity(c), id, req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully edited"})
}

func (h *Handler) productDetail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	product, err := h.products.Detail(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := productToResponse(*product)
	resp.ImageURL = h.imageURL(c.Request.Context(), product)
	c.JSON(http.StatusOK, gin.H{"message": "success", "productDetails": resp})
}

func (h *Handler) sellerList(c *gin.Context) {
	var req domain.PageQuery
	if !bindJSON(c, &req) {
		return
	}

	summaries, err := h.products.SellerList(c.Request.Context(), actingIdentity(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Seller List...", "productList": summariesToResponse(summaries)})
}

func (h *Handler) buyerList(c *gin.Context) {
	var req domain.PageQuery
	if !bindJSON(c, &req) {
		return
	}

	summaries, err := h.products.BuyerList(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "success", "productList": summariesToResponse(summaries)})
}

// imageURL presigns a read URL for the product image. Failures only drop the
// URL from the response.
func (h *Handler) imageURL(ctx context.Context, product *domain.Product) string {
	if h.images == nil || product.Image == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	url, err := h.images.GetObjectURL(ctx, *product.Image, h.imageURLExpiry)
	if err != nil {
		h.logger.WithError(err).WithField("product_id", product.ID.String()).Warn("presign product image")
		return ""
	}
	return url
}

func productToResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        p.Brand,
		Price:        p.Price,
		Quantity:     p.Quantity,
		Category:     p.Category,
		FreeShipping: p.FreeShipping,
		Description:  p.Description,
		Image:        p.Image,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func summariesToResponse(summaries []domain.ProductSummary) []ProductSummaryResponse {
	resp := make([]ProductSummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = ProductSummaryResponse{
			ID:          s.ID,
			Name:        s.Name,
			Brand:       s.Brand,
			Price:       s.Price,
			Image:       s.Image,
			Description: s.Description,
		}
	}
	return resp
}
