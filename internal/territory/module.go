package territory

import (
	apphttp "hoareca_growth_hub/internal/http"
)

// Module wires the territory HTTP routes.
type Module struct {
	handler *Handler
}

func NewModule(resolver *Resolver) *Module {
	return &Module{handler: NewHandler(resolver)}
}

func (m *Module) Name() string {
	return "territory"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/territory/scope", m.handler.GetScope)
}

var _ apphttp.Module = (*Module)(nil)
