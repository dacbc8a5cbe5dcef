package http

import (
	"github.com/gin-gonic/gin"

	"shopfront/internal/auth"
	"shopfront/internal/domain"
)

const identityKey = "identity"

// require authenticates the request and enforces policy before the route
// handler runs.
func (h *Handler) require(policy auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.authn.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		if err := policy.Check(identity); err != nil {
			h.writeError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func actingIdentity(c *gin.Context) domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	identity, _ := v.(domain.Identity)
	return identity
}

func pathID(c *gin.Context) (domain.ID, error) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		return domain.ID{}, domain.Errorf(domain.ErrInvalidID, "Invalid id")
	}
	return id, nil
}
