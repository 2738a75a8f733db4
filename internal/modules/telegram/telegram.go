// Package telegram detaches a subscriber from the Telegram bot by assigning a fresh link code.
package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/codegen"
	"github.com/ferminotify/core/internal/pkg/response"
)

var errNotFound = errors.New("subscriber not found")

type Service struct {
	db     *gorm.DB
	codes  *codegen.Generator
	logger *zap.Logger
}

func NewService(db *gorm.DB, codes *codegen.Generator, logger *zap.Logger) *Service {
	if codes == nil {
		codes = codegen.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, codes: codes, logger: logger.Named("TelegramService")}
}

// Disconnect replaces the subscriber's telegram column with an unused code and returns it.
func (s *Service) Disconnect(ctx context.Context, userID string) (string, error) {
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		code, err = s.codes.Unique(ctx, codegen.StoreChecker(tx))
		if err != nil {
			return err
		}
		res := tx.Model(&models.Subscriber{}).Where("id = ?", userID).Update("telegram", code)
		if res.Error != nil {
			return fmt.Errorf("update telegram code: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, codegen.ErrExhausted) {
			s.logger.Error("no unique telegram code", zap.String("subscriber", userID), zap.Int("attempts", codegen.MaxAttempts))
		}
		return "", err
	}
	s.logger.Info("telegram disconnected", zap.String("subscriber", userID))
	return code, nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.Group("/telegram", authMW).POST("/disconnect", h.disconnect)
}

func (h *Handler) disconnect(c *gin.Context) {
	code, err := h.svc.Disconnect(c.Request.Context(), middleware.CurrentUserID(c))
	if errors.Is(err, errNotFound) {
		response.NotFoundMsg(c, "Utente non trovato!")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Telegram disconnesso con successo!", "telegram": code})
}
