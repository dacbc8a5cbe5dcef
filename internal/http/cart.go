package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopfront/internal/domain"
)

func (h *Handler) addCartItem(c *gin.Context) {
	var req domain.CartItemInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.carts.AddItem(c.Request.Context(), actingIdentity(c), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item added successfully"})
}

func (h *Handler) flushCart(c *gin.Context) {
	if _, err := h.carts.Flush(c.Request.Context(), actingIdentity(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart is cleared successfully"})
}

func (h *Handler) deleteCartItem(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), actingIdentity(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart item is removed successfully"})
}
