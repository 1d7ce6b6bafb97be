package exports

import (
	apphttp "previdas_backend/internal/http"
)

// Module wires the export routes.
type Module struct {
	handler *Handler
}

// NewModule creates the exports module.
func NewModule(handler *Handler) *Module {
	return &Module{handler: handler}
}

// Name implements apphttp.Module.
func (m *Module) Name() string { return "exports" }

// RegisterRoutes mounts the export endpoints on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/exports")
	{
		group.GET("/leads.csv", m.handler.HandleDownloadCSV)
		group.POST("/leads", m.handler.HandleUploadCSV)
	}
}

var _ apphttp.Module = (*Module)(nil)
