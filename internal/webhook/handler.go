package webhook

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"previdas_backend/internal/leads/service"
	"previdas_backend/internal/scheduler"
	"previdas_backend/platform/httpkit"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/validator"
)

// inboundMessage mirrors the gateway's callback shape.
type inboundMessage struct {
	From     string `json:"from" validate:"required"`
	PushName string `json:"pushName"`
	Text     struct {
		Body string `json:"body" validate:"required"`
	} `json:"text"`
}

// Handler accepts gateway callbacks and queues them for processing.
type Handler struct {
	enqueuer  scheduler.MessageEnqueuer
	leads     *service.Service
	validator *validator.Validator
	log       *logger.Logger
}

// NewHandler creates the webhook handler. leads is the inline fallback used
// when the queue is unreachable, so a Redis outage degrades to synchronous
// processing instead of dropping messages.
func NewHandler(enqueuer scheduler.MessageEnqueuer, leads *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{enqueuer: enqueuer, leads: leads, validator: val, log: log}
}

// HandleInboundMessage ingests one message callback.
func (h *Handler) HandleInboundMessage(c *gin.Context) {
	var payload inboundMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	task := scheduler.MessageReceivedPayload{
		Phone: payload.From,
		Text:  payload.Text.Body,
		Name:  payload.PushName,
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueMessageReceived(c.Request.Context(), task); err == nil {
			httpkit.JSON(c, http.StatusAccepted, gin.H{
				"status":    "queued",
				"timestamp": time.Now().UTC(),
			})
			return
		} else {
			h.log.Warn("queue unavailable, processing inline", "error", err)
		}
	}

	result, err := h.leads.ProcessMessage(c.Request.Context(), task.Phone, task.Text)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"status":    "processed",
		"identity":  result.Identity,
		"leadScore": result.Score,
		"timestamp": time.Now().UTC(),
	})
}

// registration is the site-form capture payload.
type registration struct {
	Phone  string `json:"phone" validate:"required"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// HandleRegistration ingests a lead registration from an external form.
func (h *Handler) HandleRegistration(c *gin.Context) {
	var payload registration
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	if h.enqueuer != nil {
		err := h.enqueuer.EnqueueLeadRegistered(c.Request.Context(), scheduler.LeadRegisteredPayload{
			Phone:  payload.Phone,
			Name:   payload.Name,
			Source: payload.Source,
		})
		if err == nil {
			httpkit.JSON(c, http.StatusAccepted, gin.H{"status": "queued"})
			return
		}
		h.log.Warn("queue unavailable, registering inline", "error", err)
	}

	contact, err := h.leads.RegisterLead(c.Request.Context(), service.RegisterParams{
		Phone:  payload.Phone,
		Name:   payload.Name,
		Source: payload.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

// KeyManager administers webhook API keys.
type KeyManager struct {
	repo *Repository
	log  *logger.Logger
}

// NewKeyManager creates the admin surface for API keys.
func NewKeyManager(repo *Repository, log *logger.Logger) *KeyManager {
	return &KeyManager{repo: repo, log: log}
}

// HandleCreateAPIKey mints a new key and returns the plaintext exactly once.
func (k *KeyManager) HandleCreateAPIKey(c *gin.Context) {
	var payload struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "could not generate key", nil)
		return
	}

	key, err := k.repo.Create(c.Request.Context(), payload.Name, hash, prefix)
	if err != nil {
		k.log.DatabaseError("create webhook key", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not store key", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, gin.H{
		"id":        key.ID,
		"name":      key.Name,
		"keyPrefix": key.KeyPrefix,
		"apiKey":    plaintext,
	})
}

// HandleListAPIKeys lists keys without hashes.
func (k *KeyManager) HandleListAPIKeys(c *gin.Context) {
	keys, err := k.repo.List(c.Request.Context())
	if err != nil {
		k.log.DatabaseError("list webhook keys", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not list keys", nil)
		return
	}

	out := make([]gin.H, 0, len(keys))
	for _, key := range keys {
		out = append(out, gin.H{
			"id":        key.ID,
			"name":      key.Name,
			"keyPrefix": key.KeyPrefix,
			"isActive":  key.IsActive,
			"createdAt": key.CreatedAt,
		})
	}
	httpkit.OK(c, out)
}

// HandleRevokeAPIKey deactivates a key.
func (k *KeyManager) HandleRevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}

	if err := k.repo.Revoke(c.Request.Context(), keyID); err != nil {
		if err == ErrAPIKeyNotFound {
			httpkit.Error(c, http.StatusNotFound, "key not found", nil)
			return
		}
		k.log.DatabaseError("revoke webhook key", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not revoke key", nil)
		return
	}
	httpkit.OK(c, gin.H{"status": "revoked"})
}
