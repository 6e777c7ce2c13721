package analytics

import (
	"net/http"
	"strings"

	"hoareca_growth_hub/internal/funnel"
	"hoareca_growth_hub/platform/httpkit"
	"hoareca_growth_hub/platform/validator"

	"github.com/gin-gonic/gin"
)

// viewQuery is the query string shared by both views.
type viewQuery struct {
	From    string `form:"from"`
	To      string `form:"to"`
	Pincode string `form:"pincode"`
}

// LeadMasterResponse wraps the table rows.
type LeadMasterResponse struct {
	Items []funnel.LeadMasterRow `json:"items"`
}

// Handler serves the analytics views.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) query(c *gin.Context) (Query, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return Query{}, false
	}
	var vq viewQuery
	if err := c.ShouldBindQuery(&vq); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return Query{}, false
	}
	pincode := strings.TrimSpace(vq.Pincode)
	if pincode != "" && !strings.EqualFold(pincode, funnel.AllPincodes) && !validator.IsPincode(pincode) {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", "pincode must be 6 digits or all")
		return Query{}, false
	}
	if strings.EqualFold(pincode, funnel.AllPincodes) {
		pincode = funnel.AllPincodes
	}
	from, to, err := httpkit.ParseDateRange(vq.From, vq.To, h.svc.loc)
	if httpkit.HandleError(c, err) {
		return Query{}, false
	}
	return Query{UserID: identity.UserID(), From: from, To: to, Pincode: pincode}, true
}

// Funnel serves GET /analytics/funnel.
func (h *Handler) Funnel(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	result, err := h.svc.Funnel(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// LeadMaster serves GET /analytics/lead-master.
func (h *Handler) LeadMaster(c *gin.Context) {
	q, ok := h.query(c)
	if !ok {
		return
	}
	rows, err := h.svc.LeadMaster(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	if rows == nil {
		rows = []funnel.LeadMasterRow{}
	}
	httpkit.OK(c, LeadMasterResponse{Items: rows})
}
