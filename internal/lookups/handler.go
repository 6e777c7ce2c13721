package lookups

import (
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves lookup tables.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// DropReasons serves GET /lookups/drop-reasons?stage=.
func (h *Handler) DropReasons(c *gin.Context) {
	items, err := h.svc.DropReasons(c.Request.Context(), c.Query("stage"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) SKUs(c *gin.Context) {
	items, err := h.svc.SKUs(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

func (h *Handler) Stages(c *gin.Context) {
	items, err := h.svc.Stages(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}

// Pincodes lists the caller's own pincode mappings.
func (h *Handler) Pincodes(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	items, err := h.svc.Pincodes(c.Request.Context(), identity.UserID(), identity.HasRole(httpkit.RoleAdmin))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}
