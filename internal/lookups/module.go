package lookups

import (
	apphttp "hoareca_growth_hub/internal/http"
)

// Module wires the lookup HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(svc *Service) *Module {
	return &Module{handler: NewHandler(svc)}
}

func (m *Module) Name() string {
	return "lookups"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.Protected.Group("/lookups")
	g.GET("/drop-reasons", m.handler.DropReasons)
	g.GET("/skus", m.handler.SKUs)
	g.GET("/stages", m.handler.Stages)
	g.GET("/pincodes", m.handler.Pincodes)
}

var _ apphttp.Module = (*Module)(nil)
