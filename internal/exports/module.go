// Package exports serves lead downloads for spreadsheets.
package exports

import (
	"time"

	apphttp "hoareca_growth_hub/internal/http"
	"hoareca_growth_hub/platform/validator"
)

// Module is the exports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the exports module.
func NewModule(leads LeadLister, val *validator.Validator, loc *time.Location) *Module {
	return &Module{handler: NewHandler(leads, val, loc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "exports"
}

// RegisterRoutes mounts export routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/exports/leads", m.handler.ExportLeads)
}

var _ apphttp.Module = (*Module)(nil)
