package handler

import (
	"net/http"

	"previdas_backend/internal/leads/repository"
	"previdas_backend/internal/leads/service"
	"previdas_backend/internal/leads/transport"
	"previdas_backend/platform/httpkit"
	"previdas_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	defaultListLimit    = 50
	defaultHistoryLimit = 50
)

// Handler serves the lead management and analytics endpoints.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Register)
	rg.GET("/stats", h.Stats)
	rg.GET("/:phone", h.Get)
	rg.DELETE("/:phone", h.Delete)
	rg.GET("/:phone/conversation", h.Conversation)
	rg.GET("/:phone/automations", h.AutomationLogs)
}

// RegisterAnalyticsRoutes mounts the funnel metrics endpoints.
func (h *Handler) RegisterAnalyticsRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
}

// RegisterMessageRoutes mounts the direct message processing endpoint used
// by operators to replay or test messages without the gateway.
func (h *Handler) RegisterMessageRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.ProcessMessage)
}

func (h *Handler) List(c *gin.Context) {
	var query transport.ListLeadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultListLimit
	}

	leads, err := h.svc.ListLeads(c.Request.Context(), repository.ListParams{
		Status:   query.Status,
		MinScore: query.MinScore,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"leads": leads, "count": len(leads)})
}

func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.svc.RegisterLead(c.Request.Context(), service.RegisterParams{
		Phone:  req.Phone,
		Name:   req.Name,
		Source: req.Source,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, contact)
}

func (h *Handler) Get(c *gin.Context) {
	contact, err := h.svc.GetLead(c.Request.Context(), c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contact)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.DeleteLead(c.Request.Context(), c.Param("phone")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "deleted"})
}

func (h *Handler) Conversation(c *gin.Context) {
	limit, ok := h.historyLimit(c)
	if !ok {
		return
	}
	messages, err := h.svc.Conversation(c.Request.Context(), c.Param("phone"), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"messages": messages, "count": len(messages)})
}

func (h *Handler) AutomationLogs(c *gin.Context) {
	limit, ok := h.historyLimit(c)
	if !ok {
		return
	}
	logs, err := h.svc.AutomationLogs(c.Request.Context(), c.Param("phone"), limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"logs": logs, "count": len(logs)})
}

func (h *Handler) Dashboard(c *gin.Context) {
	metrics, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func (h *Handler) ProcessMessage(c *gin.Context) {
	var req transport.ProcessMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.ProcessMessage(c.Request.Context(), req.Phone, req.Text)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) historyLimit(c *gin.Context) (int, bool) {
	var query transport.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return 0, false
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return 0, false
	}
	if query.Limit == 0 {
		query.Limit = defaultHistoryLimit
	}
	return query.Limit, true
}
