package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/response"
)

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("PreferencesService")}
}

// ParseChannel accepts only a JSON integer naming a valid channel.
func ParseChannel(raw json.RawMessage) (models.Channel, error) {
	var n *int
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil || n == nil {
		return 0, errInvalidOption
	}
	c := models.Channel(*n)
	if !c.Valid() {
		return 0, errInvalidOption
	}
	return c, nil
}

// SetChannel stores the delivery channel.
func (s *Service) SetChannel(ctx context.Context, userID string, c models.Channel) error {
	if !c.Valid() {
		return errInvalidOption
	}
	err := s.db.WithContext(ctx).Model(&models.Subscriber{}).Where("id = ?", userID).
		Update("notification_preferences", c).Error
	if err != nil {
		return fmt.Errorf("update notification preferences: %w", err)
	}
	return nil
}

// ToggleSimilar flips include_similar_tags and returns the stored value.
// The UPDATE takes the row lock, so concurrent toggles serialize.
func (s *Service) ToggleSimilar(ctx context.Context, userID string) (bool, error) {
	var value bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Subscriber{}).Where("id = ?", userID).
			UpdateColumn("include_similar_tags", gorm.Expr("NOT include_similar_tags"))
		if res.Error != nil {
			return fmt.Errorf("toggle include_similar_tags: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errNotFound
		}
		var sub models.Subscriber
		if err := tx.Select("include_similar_tags").First(&sub, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("read include_similar_tags: %w", err)
		}
		value = sub.IncludeSimilarTags
		return nil
	})
	return value, err
}

// SetTime stores the delivery minute of day and the day-before flag.
func (s *Service) SetTime(ctx context.Context, userID string, minute int, dayBefore bool) error {
	if minute < 0 || minute >= minutesPerDay {
		return errInvalidTime
	}
	err := s.db.WithContext(ctx).Model(&models.Subscriber{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"notification_time":       minute,
			"notification_day_before": dayBefore,
		}).Error
	if err != nil {
		return fmt.Errorf("update notification time: %w", err)
	}
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/preferences", authMW)
	g.POST("/notification-preferences", h.setChannel)
	g.POST("/toggle-probable-notifications", h.toggle)
	g.POST("/notification-time", h.setTime)
}

func (h *Handler) fail(c *gin.Context, err error) {
	for sentinel, msg := range badRequestMessages {
		if errors.Is(err, sentinel) {
			response.BadRequest(c, msg)
			return
		}
	}
	if errors.Is(err, errNotFound) {
		response.NotFoundMsg(c, "Utente non trovato!")
		return
	}
	response.InternalError(c, err)
}

func (h *Handler) setChannel(c *gin.Context) {
	var dto OptionDTO
	_ = c.ShouldBindJSON(&dto)
	ch, err := ParseChannel(dto.Option)
	if err == nil {
		err = h.svc.SetChannel(c.Request.Context(), middleware.CurrentUserID(c), ch)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, msgChannelUpdated)
}

func (h *Handler) toggle(c *gin.Context) {
	v, err := h.svc.ToggleSimilar(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": msgToggled, "include_similar_tags": v})
}

func (h *Handler) setTime(c *gin.Context) {
	var dto TimeDTO
	_ = c.ShouldBindJSON(&dto)
	minute, err := ParseMinute(dto.Time)
	if err == nil && dto.Day == nil {
		err = errInvalidDay
	}
	if err == nil {
		err = h.svc.SetTime(c.Request.Context(), middleware.CurrentUserID(c), minute, *dto.Day)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, msgTimeUpdated)
}
