// Package handler exposes the pipeline operations over HTTP.
package handler

import (
	"net/http"
	"time"

	"hoareca_growth_hub/internal/funnel"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/internal/pipeline/transport"
	"hoareca_growth_hub/platform/httpkit"
	"hoareca_growth_hub/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// Handler handles pipeline HTTP requests.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	loc *time.Location
}

// New creates a pipeline handler. Date filters are read in loc.
func New(svc *service.Service, val *validator.Validator, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{svc: svc, val: val, loc: loc}
}

// RegisterRoutes mounts the pipeline routes on a protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	prospects := rg.Group("/prospects")
	prospects.GET("", h.ListProspects)
	prospects.POST("", h.CreateProspect)
	prospects.POST("/:id/assign", h.AssignProspect)
	prospects.POST("/:id/drop", h.DropProspect)
	prospects.POST("/:id/convert", h.ConvertProspect)

	leads := rg.Group("/leads")
	leads.GET("", h.ListLeads)
	leads.POST("", h.CreateLead)
	leads.POST("/:id/calls", h.LogCall)
	leads.POST("/:id/visits", h.LogLeadVisit)
	leads.POST("/:id/drop", h.DropLead)
	leads.POST("/:id/samples", h.BookSample)

	orders := rg.Group("/sample-orders")
	orders.GET("", h.ListOrders)
	orders.POST("/:id/visits", h.LogOrderVisit)
	orders.POST("/:id/deliver", h.MarkDelivered)
	orders.POST("/:id/drop", h.DropOrder)
	orders.POST("/:id/photo-upload-url", h.PhotoUploadURL)
	orders.GET("/:id/photo", h.PhotoDownloadURL)
	orders.POST("/:id/agreement", h.CreateAgreement)

	agreements := rg.Group("/agreements")
	agreements.GET("", h.ListAgreements)
	agreements.POST("/:id/visits", h.LogAgreementVisit)
	agreements.POST("/:id/feedback", h.RecordFeedback)
	agreements.POST("/:id/sign", h.MarkSigned)
	agreements.POST("/:id/lose", h.MarkLost)
}

func actor(c *gin.Context) (service.Actor, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: identity.UserID(), Email: identity.Email()}, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// target resolves the caller and the :id path parameter, then binds the body.
func (h *Handler) target(c *gin.Context, req interface{}) (service.Actor, uuid.UUID, bool) {
	a, ok := actor(c)
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}
	id, ok := pathID(c)
	if !ok {
		return service.Actor{}, uuid.Nil, false
	}
	if req != nil && !h.bind(c, req) {
		return service.Actor{}, uuid.Nil, false
	}
	return a, id, true
}

func (h *Handler) listFilter(c *gin.Context) (service.ListFilter, bool) {
	var q transport.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return service.ListFilter{}, false
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return service.ListFilter{}, false
	}
	from, to, err := httpkit.ParseDateRange(q.From, q.To, h.loc)
	if httpkit.HandleError(c, err) {
		return service.ListFilter{}, false
	}

	window := funnel.DayFilter(from, to, q.Pincode, h.loc)
	f := service.ListFilter{Pincode: q.Pincode, Status: q.Status, Limit: q.Limit, Offset: q.Offset}
	if !window.From.IsZero() {
		f.From = &window.From
	}
	if !window.To.IsZero() {
		f.To = &window.To
	}
	return f, true
}

func optionalID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, key)
		return nil, false
	}
	return &id, true
}
