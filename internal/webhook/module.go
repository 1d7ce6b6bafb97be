// Package webhook exposes the inbound message ingestion surface. Gateway
// callbacks authenticate with hashed API keys instead of JWT so that the
// messaging provider never holds a user credential.
package webhook

import (
	apphttp "previdas_backend/internal/http"
	"previdas_backend/platform/httpkit"
)

// Module wires the webhook ingestion and key management routes.
type Module struct {
	handler *Handler
	keys    *KeyManager
	repo    *Repository
}

// NewModule creates the webhook module.
func NewModule(handler *Handler, keys *KeyManager, repo *Repository) *Module {
	return &Module{handler: handler, keys: keys, repo: repo}
}

// Name implements apphttp.Module.
func (m *Module) Name() string { return "webhook" }

// RegisterRoutes mounts the ingestion endpoints on the public v1 group,
// guarded by the API key middleware and the webhook rate limiter, and the
// key administration endpoints on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ingest := ctx.V1.Group("/webhook")
	ingest.Use(ctx.WebhookRateLimiter.RateLimit())
	ingest.Use(APIKeyAuthMiddleware(m.repo))
	{
		ingest.POST("/whatsapp", m.handler.HandleInboundMessage)
		ingest.POST("/register", m.handler.HandleRegistration)
	}

	admin := ctx.Protected.Group("/webhook/keys")
	admin.Use(httpkit.RequireRole("admin"))
	{
		admin.POST("", m.keys.HandleCreateAPIKey)
		admin.GET("", m.keys.HandleListAPIKeys)
		admin.DELETE("/:keyId", m.keys.HandleRevokeAPIKey)
	}
}
