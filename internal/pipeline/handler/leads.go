package handler

import (
	"net/http"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/internal/pipeline/transport"
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func visitInput(req transport.LogVisitRequest) service.VisitInput {
	return service.VisitInput{
		Outcome:   req.Outcome,
		RevisitAt: req.RevisitAt,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}
}

func (h *Handler) ListLeads(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	items, err := h.svc.ListLeads(c.Request.Context(), a, f)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []domain.Lead{}
	}
	httpkit.OK(c, transport.LeadListResponse{Items: items})
}

func (h *Handler) CreateLead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req transport.CreateLeadRequest
	if !h.bind(c, &req) {
		return
	}
	lead, err := h.svc.CreateLead(c.Request.Context(), a, service.CreateLeadInput{
		ClientName: req.ClientName,
		Pincode:    req.Pincode,
		Remarks:    req.Remarks,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, lead)
}

func (h *Handler) LogCall(c *gin.Context) {
	var req transport.LogCallRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	lead, err := h.svc.LogCall(c.Request.Context(), a, id, service.CallInput{Notes: req.Notes, FollowUpAt: req.FollowUpAt})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) LogLeadVisit(c *gin.Context) {
	var req transport.LogVisitRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	lead, err := h.svc.LogLeadVisit(c.Request.Context(), a, id, visitInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) DropLead(c *gin.Context) {
	var req transport.DropRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	lead, err := h.svc.DropLead(c.Request.Context(), a, id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

func (h *Handler) BookSample(c *gin.Context) {
	var req transport.BookSampleRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	order, err := h.svc.BookSample(c.Request.Context(), a, id, service.BookSampleInput{SKU: req.SKU, Notes: req.Notes})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, order)
}
