package territory

import (
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the caller's territory.
type Handler struct {
	resolver *Resolver
}

func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// GetScope returns the caller's resolved scope.
func (h *Handler) GetScope(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	httpkit.OK(c, h.resolver.Resolve(c.Request.Context(), identity.UserID()))
}
