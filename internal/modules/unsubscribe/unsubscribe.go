// Package unsubscribe serves the one-click email opt-out linked from every outgoing mail.
package unsubscribe

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/response"
)

var (
	errMissingParams = errors.New("missing unsubscribe parameters")
	errMismatch      = errors.New("unsubscribe link does not match a subscriber")
)

type Request struct {
	ID    string `form:"id"`
	Token string `form:"token"`
	Email string `form:"email"`
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("UnsubscribeService")}
}

// Unsubscribe removes the email channel from the subscriber the link was issued to
// and returns the resulting channel.
func (s *Service) Unsubscribe(ctx context.Context, req Request) (models.Channel, error) {
	if req.ID == "" || req.Token == "" || req.Email == "" {
		return 0, errMissingParams
	}
	var next models.Channel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.Subscriber
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "email", "unsub_token", "notification_preferences").
			First(&sub, "id = ?", req.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errMismatch
		}
		if err != nil {
			return fmt.Errorf("load subscriber: %w", err)
		}
		if sub.UnsubToken == "" ||
			subtle.ConstantTimeCompare([]byte(sub.UnsubToken), []byte(req.Token)) != 1 ||
			!strings.EqualFold(sub.Email, req.Email) {
			return errMismatch
		}
		next = sub.NotificationPreferences.WithoutEmail()
		if next == sub.NotificationPreferences {
			return nil
		}
		if err := tx.Model(&models.Subscriber{}).Where("id = ?", sub.ID).
			Update("notification_preferences", next).Error; err != nil {
			return fmt.Errorf("update notification preferences: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("email unsubscribed", zap.String("subscriber", req.ID), zap.Int("channel", int(next)))
	return next, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/unsubscribe", h.unsubscribe)
	rg.GET("/auth/unsubscribe", h.unsubscribe)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	var req Request
	_ = c.ShouldBindQuery(&req)
	ch, err := h.svc.Unsubscribe(c.Request.Context(), req)
	switch {
	case err == nil:
		response.OK(c, gin.H{
			"message":                  "Non riceverai più notifiche via email.",
			"notification_preferences": ch,
		})
	case errors.Is(err, errMissingParams):
		response.BadRequest(c, "Parametri mancanti!")
	case errors.Is(err, errMismatch):
		response.NotFoundMsg(c, "Link di disiscrizione non valido!")
	default:
		response.InternalError(c, err)
	}
}
