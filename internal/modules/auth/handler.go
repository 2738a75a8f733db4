package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferminotify/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the auth routes on rg and again under /user/auth, where
// the links in confirmation emails point. limiter guards register and login.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limiter gin.HandlerFunc) {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	for _, g := range []*gin.RouterGroup{rg, rg.Group("/user/auth")} {
		g.PUT("/register", limiter, h.register)
		g.GET("/register/confirmation/:code", h.confirm)
		g.POST("/login", limiter, h.login)
		g.POST("/refresh_token", h.refresh)
		g.POST("/logout", h.logout)
	}
}

// fail writes the response for err. Client errors carry their message, the rest is a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	for sentinel, msg := range badRequestMessages {
		if errors.Is(err, sentinel) {
			response.BadRequest(c, msg)
			return
		}
	}
	switch {
	case errors.Is(err, errInvalidCredentials):
		response.UnauthorizedMsg(c, msgInvalidLogin)
	case errors.Is(err, errInvalidRefresh):
		response.UnauthorizedMsg(c, msgInvalidToken)
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, badRequestMessages[errMissingFields])
		return
	}
	resent, err := h.svc.Register(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	if resent {
		response.Message(c, http.StatusOK, msgResent)
		return
	}
	response.Message(c, http.StatusCreated, msgRegistered)
}

func (h *Handler) confirm(c *gin.Context) {
	if err := h.svc.Confirm(c.Request.Context(), c.Param("code")); err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, msgConfirmed)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnauthorizedMsg(c, msgInvalidLogin)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, res)
}

func (h *Handler) refresh(c *gin.Context) {
	var dto RefreshDTO
	_ = c.ShouldBindJSON(&dto)
	token, err := h.svc.Refresh(c.Request.Context(), dto.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"token": token})
}

func (h *Handler) logout(c *gin.Context) {
	var dto RefreshDTO
	_ = c.ShouldBindJSON(&dto)
	if err := h.svc.Logout(c.Request.Context(), dto.RefreshToken); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"success": true})
}
