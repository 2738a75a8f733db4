package push

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/pkg/response"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts /push. authMW guards subscribe, operatorMW guards the broadcast.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, operatorMW gin.HandlerFunc) {
	g := rg.Group("/push")
	g.GET("/public-key", h.publicKey)
	g.GET("/health", h.health)
	g.POST("/subscribe", authMW, h.subscribe)
	g.POST("/notify", operatorMW, h.notify)
}

func (h *Handler) publicKey(c *gin.Context) {
	response.OK(c, gin.H{"key": h.svc.PublicKey()})
}

func (h *Handler) health(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"ok": true, "subscriptions": n, "hasKeys": h.svc.HasKeys()})
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	_ = c.ShouldBindJSON(&dto)
	updated, err := h.svc.Subscribe(c.Request.Context(), middleware.CurrentUserID(c), dto)
	if errors.Is(err, errInvalidSubscription) {
		response.BadRequest(c, "Sottoscrizione non valida!")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "updated": updated})
}

func (h *Handler) notify(c *gin.Context) {
	var dto NotifyDTO
	_ = c.ShouldBindJSON(&dto)
	res, err := h.svc.Notify(c.Request.Context(), dto)
	if errors.Is(err, errNoKeys) {
		response.ServiceUnavailable(c, "VAPID keys not configured")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"ok": true, "sent": res.Sent, "removed": res.Removed, "total": res.Total})
}
