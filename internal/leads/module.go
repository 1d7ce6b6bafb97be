// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates route registration; the
// scoring pipeline itself lives in the service package because the worker
// binary drives it too.
package leads

import (
	apphttp "previdas_backend/internal/http"
	"previdas_backend/internal/leads/handler"
	"previdas_backend/internal/leads/service"
	"previdas_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wraps an already wired scoring service with its HTTP surface.
// The service is built at the composition root because the API server and
// the queue worker share the same instance shape.
func NewModule(svc *service.Service, val *validator.Validator) *Module {
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service exposes the scoring pipeline for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts lead management, analytics and message replay routes.
// All of them require authentication.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterAnalyticsRoutes(ctx.Protected.Group("/analytics"))
	m.handler.RegisterMessageRoutes(ctx.Protected.Group("/messages"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
