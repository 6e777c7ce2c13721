package handler

import (
	"net/http"

	"hoareca_growth_hub/internal/pipeline/domain"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/internal/pipeline/transport"
	"hoareca_growth_hub/platform/httpkit"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListOrders(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f, ok := h.listFilter(c)
	if !ok {
		return
	}
	leadID, ok := optionalID(c, "leadId")
	if !ok {
		return
	}
	items, err := h.svc.ListOrders(c.Request.Context(), a, f, leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	if items == nil {
		items = []domain.SampleOrder{}
	}
	httpkit.OK(c, transport.OrderListResponse{Items: items})
}

func (h *Handler) LogOrderVisit(c *gin.Context) {
	var req transport.LogVisitRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	order, err := h.svc.LogOrderVisit(c.Request.Context(), a, id, visitInput(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, order)
}

func (h *Handler) MarkDelivered(c *gin.Context) {
	var req transport.DeliverRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	order, err := h.svc.MarkDelivered(c.Request.Context(), a, id, service.DeliverInput{
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		PhotoKey:    req.PhotoKey,
		DeliveredAt: req.DeliveredAt,
		Notes:       req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, order)
}

func (h *Handler) DropOrder(c *gin.Context) {
	var req transport.DropRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	order, err := h.svc.DropOrder(c.Request.Context(), a, id, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, order)
}

func (h *Handler) PhotoUploadURL(c *gin.Context) {
	var req transport.PhotoUploadRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	url, err := h.svc.PhotoUploadURL(c.Request.Context(), a, id, service.PhotoUploadInput{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PhotoUploadResponse{
		UploadURL: url.URL,
		FileKey:   url.FileKey,
		ExpiresAt: url.ExpiresAt.Unix(),
	})
}

func (h *Handler) PhotoDownloadURL(c *gin.Context) {
	a, id, ok := h.target(c, nil)
	if !ok {
		return
	}
	url, err := h.svc.PhotoDownloadURL(c.Request.Context(), a, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PhotoDownloadResponse{
		DownloadURL: url.URL,
		FileKey:     url.FileKey,
		ExpiresAt:   url.ExpiresAt.Unix(),
	})
}

func (h *Handler) CreateAgreement(c *gin.Context) {
	var req transport.CreateAgreementRequest
	a, id, ok := h.target(c, &req)
	if !ok {
		return
	}
	agreement, err := h.svc.CreateAgreement(c.Request.Context(), a, id, req.Notes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, agreement)
}
