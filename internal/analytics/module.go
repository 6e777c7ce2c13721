package analytics

import (
	apphttp "hoareca_growth_hub/internal/http"
)

// Module wires the analytics HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc)}
}

func (m *Module) Name() string {
	return "analytics"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/analytics")
	g.GET("/funnel", m.handler.Funnel)
	g.GET("/lead-master", m.handler.LeadMaster)
}

var _ apphttp.Module = (*Module)(nil)
