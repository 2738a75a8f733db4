package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/modules/preferences"
	"github.com/ferminotify/core/internal/pkg/response"
)

var (
	errNoFields      = errors.New("no fields to update")
	errEmptyName     = errors.New("name must not be empty")
	errInvalidGender = errors.New("invalid gender")
	errNotFound      = errors.New("subscriber not found")
)

// EditDTO holds the optional profile fields. A nil field is left untouched.
type EditDTO struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Gender  *string `json:"gender"`
}

type Profile struct {
	Name                    string             `json:"name"`
	Surname                 string             `json:"surname"`
	Email                   string             `json:"email"`
	Gender                  models.Gender      `json:"gender"`
	Keywords                models.StringArray `json:"keywords"`
	Telegram                string             `json:"telegram"`
	Notifications           int                `json:"notifications"`
	NotificationPreferences models.Channel     `json:"notification_preferences"`
	IncludeSimilarTags      bool               `json:"include_similar_tags"`
	NotificationDayBefore   bool               `json:"notification_day_before"`
	NotificationTime        string             `json:"notification_time"`
}

func toProfile(s *models.Subscriber) Profile {
	kw := s.Keywords
	if kw == nil {
		kw = models.StringArray{}
	}
	return Profile{
		Name: s.Name, Surname: s.Surname, Email: s.Email, Gender: s.Gender,
		Keywords: kw, Telegram: s.Telegram, Notifications: s.Notifications,
		NotificationPreferences: s.NotificationPreferences,
		IncludeSimilarTags:      s.IncludeSimilarTags,
		NotificationDayBefore:   s.NotificationDayBefore,
		NotificationTime:        preferences.FormatMinute(s.NotificationTime),
	}
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("ProfileService")}
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	var sub models.Subscriber
	err := s.db.WithContext(ctx).First(&sub, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	p := toProfile(&sub)
	return &p, nil
}

// Edit updates the provided fields. Names are trimmed and must stay non-empty.
func (s *Service) Edit(ctx context.Context, userID string, dto EditDTO) error {
	updates := map[string]interface{}{}
	for col, v := range map[string]*string{"name": dto.Name, "surname": dto.Surname} {
		if v == nil {
			continue
		}
		trimmed := strings.TrimSpace(*v)
		if trimmed == "" {
			return errEmptyName
		}
		updates[col] = trimmed
	}
	if dto.Gender != nil {
		g := models.Gender(strings.TrimSpace(*dto.Gender))
		if !g.Valid() {
			return errInvalidGender
		}
		updates["gender"] = g
	}
	if len(updates) == 0 {
		return errNoFields
	}
	err := s.db.WithContext(ctx).Model(&models.Subscriber{}).Where("id = ?", userID).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("", authMW)
	g.GET("/profile", h.get)
	g.POST("/edit", h.edit)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), middleware.CurrentUserID(c))
	if errors.Is(err, errNotFound) {
		response.NotFoundMsg(c, "Utente non trovato!")
		return
	}
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) edit(c *gin.Context) {
	var dto EditDTO
	_ = c.ShouldBindJSON(&dto)
	err := h.svc.Edit(c.Request.Context(), middleware.CurrentUserID(c), dto)
	switch {
	case err == nil:
		response.Message(c, http.StatusOK, "Profilo aggiornato con successo!")
	case errors.Is(err, errNoFields):
		response.BadRequest(c, "Nessun campo valido fornito!")
	case errors.Is(err, errEmptyName):
		response.BadRequest(c, "Nome e cognome non possono essere vuoti!")
	case errors.Is(err, errInvalidGender):
		response.BadRequest(c, "Genere non valido!")
	default:
		response.InternalError(c, err)
	}
}
