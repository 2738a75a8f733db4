package keyword

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ferminotify/core/internal/middleware"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/response"
)

// MaxLength is the longest keyword accepted, in runes.
const MaxLength = 64

var (
	errEmptyKeyword   = errors.New("keyword is required")
	errKeywordTooLong = errors.New("keyword too long")
	errNotFound       = errors.New("subscriber not found")
)

type KeywordDTO struct {
	Keyword string `json:"keyword"`
}

type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, logger: logger.Named("KeywordService")}
}

func normalize(raw string) (string, error) {
	k := strings.TrimSpace(raw)
	if k == "" {
		return "", errEmptyKeyword
	}
	if utf8.RuneCountInString(k) > MaxLength {
		return "", errKeywordTooLong
	}
	return k, nil
}

// update locks the subscriber row, applies fn to its keywords and writes them
// back when fn reports a change.
func (s *Service) update(ctx context.Context, userID string, fn func(models.StringArray) (models.StringArray, bool)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub models.Subscriber
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "tags").First(&sub, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound
		}
		if err != nil {
			return fmt.Errorf("load keywords: %w", err)
		}
		next, changed := fn(sub.Keywords)
		if !changed {
			return nil
		}
		if err := tx.Model(&models.Subscriber{}).Where("id = ?", userID).
			Update("tags", next).Error; err != nil {
			return fmt.Errorf("save keywords: %w", err)
		}
		return nil
	})
}

// Add appends keyword to the subscriber's set. Adding a present keyword is a no-op.
func (s *Service) Add(ctx context.Context, userID, keyword string) error {
	k, err := normalize(keyword)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, func(cur models.StringArray) (models.StringArray, bool) {
		if cur.Contains(k) {
			return cur, false
		}
		return append(cur, k), true
	})
}

// Remove drops every occurrence of keyword. Removing an absent keyword is not an error.
func (s *Service) Remove(ctx context.Context, userID, keyword string) error {
	k, err := normalize(keyword)
	if err != nil {
		return err
	}
	return s.update(ctx, userID, func(cur models.StringArray) (models.StringArray, bool) {
		next := cur.Without(k)
		return next, len(next) != len(cur)
	})
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/keyword", authMW)
	g.PUT("/add", h.add)
	g.DELETE("/delete", h.remove)
}

func (h *Handler) add(c *gin.Context) {
	h.handle(c, h.svc.Add, "Keyword aggiunta con successo!")
}

func (h *Handler) remove(c *gin.Context) {
	h.handle(c, h.svc.Remove, "Keyword rimossa con successo!")
}

func (h *Handler) handle(c *gin.Context, op func(context.Context, string, string) error, ok string) {
	var dto KeywordDTO
	_ = c.ShouldBindJSON(&dto)
	err := op(c.Request.Context(), middleware.CurrentUserID(c), dto.Keyword)
	switch {
	case err == nil:
		response.Message(c, http.StatusOK, ok)
	case errors.Is(err, errEmptyKeyword):
		response.BadRequest(c, "La keyword è obbligatoria!")
	case errors.Is(err, errKeywordTooLong):
		response.BadRequest(c, fmt.Sprintf("La keyword può essere lunga al massimo %d caratteri!", MaxLength))
	case errors.Is(err, errNotFound):
		response.NotFoundMsg(c, "Utente non trovato!")
	default:
		response.InternalError(c, err)
	}
}
