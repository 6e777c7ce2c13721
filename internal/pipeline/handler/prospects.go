package handler

import (
	"net/http"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/internal/pipeline/transport"
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProspects(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	items, err := h.svc.ListProspects(c.Request.Context(), a, f)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []domain.Prospect{}
	}
	httpkit.OK(c, transport.ProspectListResponse{Items: items})
}

func (h *Handler) CreateProspect(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req transport.CreateProspectRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.CreateProspect(c.Request.Context(), a, service.CreateProspectInput{
		RestaurantName: req.RestaurantName,
		Pincode:        req.Pincode,
		Locality:       req.Locality,
		ContactNumber:  req.ContactNumber,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Remarks:        req.Remarks,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, p)
}

func (h *Handler) AssignProspect(c *gin.Context) {
	var req transport.AssignProspectRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	p, err := h.svc.AssignProspect(c.Request.Context(), a, id, req.MappedTo)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, p)
}

func (h *Handler) DropProspect(c *gin.Context) {
	var req transport.DropRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	p, err := h.svc.DropProspect(c.Request.Context(), a, id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, p)
}

func (h *Handler) ConvertProspect(c *gin.Context) {
	var req transport.ConvertProspectRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	lead, err := h.svc.ConvertProspect(c.Request.Context(), a, id, service.ConvertInput{
		ClientName: req.ClientName,
		Via:        req.Via,
		Notes:      req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}
