package handler

import (
	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/internal/pipeline/transport"
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAgreements(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	orderID, ok := optionalID(c, "sampleOrderId")
	if !ok {
		return
	}
	items, err := h.svc.ListAgreements(c.Request.Context(), a, f, orderID)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []domain.Agreement{}
	}
	httpkit.OK(c, transport.AgreementListResponse{Items: items})
}

func (h *Handler) LogAgreementVisit(c *gin.Context) {
	var req transport.LogVisitRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	agreement, err := h.svc.LogAgreementVisit(c.Request.Context(), a, id, visitInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agreement)
}

func (h *Handler) RecordFeedback(c *gin.Context) {
	var req transport.FeedbackRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	agreement, err := h.svc.RecordFeedback(c.Request.Context(), a, id, service.FeedbackInput{
		Positive: *req.Positive,
		Notes:    req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agreement)
}

func (h *Handler) MarkSigned(c *gin.Context) {
	a, id, ok := h.target(c, nil)
	if !ok {
		return
	}
	agreement, err := h.svc.MarkSigned(c.Request.Context(), a, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agreement)
}

func (h *Handler) MarkLost(c *gin.Context) {
	var req transport.DropRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	agreement, err := h.svc.MarkLost(c.Request.Context(), a, id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, agreement)
}
