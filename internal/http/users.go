package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopfront/internal/domain"
)

type userDetails struct {
	ID    domain.ID   `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func (h *Handler) register(c *gin.Context) {
	var req domain.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.users.Register(c.Request.Context(), req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User is registered successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req domain.LoginInput
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "success",
		"accessToken": session.Token,
		"userDetails": userDetails{
			ID:    session.User.ID,
			Email: session.User.Email,
			Role:  session.User.Role,
		},
	})
}
