// Package pipeline wires the prospect, lead, sample order and agreement
// operations into the HTTP router.
package pipeline

import (
	"time"

	"hoareca_growth_hub/internal/adapters/storage"
	"hoareca_growth_hub/internal/events"
	apphttp "hoareca_growth_hub/internal/http"
	"hoareca_growth_hub/internal/pipeline/handler"
	"hoareca_growth_hub/internal/pipeline/repository"
	"hoareca_growth_hub/internal/pipeline/service"
	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/logger"
	"hoareca_growth_hub/platform/metrics"
	"hoareca_growth_hub/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// Deps bundles the pipeline module's collaborators.
type Deps struct {
	Pool      *pgxpool.Pool
	Scopes    service.ScopeResolver
	Bus       events.Bus
	Photos    storage.PhotoStore
	Config    config.PipelineConfig
	Validator *validator.Validator
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Location  *time.Location
}

// NewModule creates and initializes the pipeline module.
func NewModule(d Deps) *Module {
	repo := repository.New(d.Pool)
	svc := service.New(repo, d.Scopes, d.Bus, d.Photos, d.Config, d.Logger, d.Metrics)
	return &Module{
		handler: handler.New(svc, d.Validator, d.Location),
		service: svc,
	}
}

// Service exposes the pipeline service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) Name() string {
	return "pipeline"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
