package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/database"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/codegen"
	"github.com/ferminotify/core/internal/pkg/jwt"
	"github.com/ferminotify/core/internal/pkg/mail"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Mailer composes and sends the account lifecycle emails.
type Mailer interface {
	SendConfirmation(ctx context.Context, r mail.Recipient, code string) error
	SendWelcome(ctx context.Context, r mail.Recipient) error
}

// effectPolicy says what a failed side effect does to the surrounding operation.
type effectPolicy int

const (
	// effectFatal aborts the operation and rolls back its transaction.
	effectFatal effectPolicy = iota
	// effectBestEffort logs and continues.
	effectBestEffort
)

type sideEffect struct {
	name   string
	policy effectPolicy
	run    func(ctx context.Context) error
}

type Service struct {
	db       *gorm.DB
	mailer   Mailer
	codes    *codegen.Generator
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

func NewService(db *gorm.DB, mailer Mailer, opts ...ServiceOption) *Service {
	s := &Service{
		db:       db,
		mailer:   mailer,
		codes:    codegen.New(),
		logger:   zap.NewNop(),
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ServiceOption configures an auth Service.
type ServiceOption func(*Service)

// WithLogger sets the logger for the auth service.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("AuthService")
		}
	}
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) { s.hashCost = cost }
}

func (s *Service) apply(ctx context.Context, e sideEffect) error {
	err := e.run(ctx)
	if err == nil {
		return nil
	}
	if e.policy == effectBestEffort {
		s.logger.Warn("side effect failed", zap.String("effect", e.name), zap.Error(err))
		return nil
	}
	return fmt.Errorf("%s: %w", e.name, err)
}

func recipient(sub *models.Subscriber) mail.Recipient {
	return mail.Recipient{
		ID:         sub.ID,
		Email:      sub.Email,
		Name:       sub.Name,
		Gender:     sub.Gender,
		UnsubToken: sub.UnsubToken,
	}
}

// normalizeRegistration trims the input and checks it in the order the
// messages are meant to surface.
func normalizeRegistration(dto RegisterDTO) (RegisterDTO, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Surname = strings.TrimSpace(dto.Surname)
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Gender = strings.TrimSpace(dto.Gender)

	switch {
	case dto.Name == "" || dto.Surname == "" || dto.Email == "" || dto.Password == "" || dto.Password2 == "" || dto.Gender == "":
		return dto, errMissingFields
	case dto.Password != dto.Password2:
		return dto, errPasswordMismatch
	case utf8.RuneCountInString(dto.Password) < 6:
		return dto, errPasswordTooShort
	case len(dto.Password) > 72:
		return dto, errPasswordTooLong
	case !models.Gender(dto.Gender).Valid():
		return dto, errInvalidGender
	case !emailPattern.MatchString(dto.Email):
		return dto, errInvalidEmail
	}
	return dto, nil
}

// Register creates an unconfirmed subscriber and mails the confirmation code.
// An unconfirmed email is updated in place and the code is mailed again, in
// which case resent is true. A failed mail rolls the write back.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (resent bool, err error) {
	in, err := normalizeRegistration(dto)
	if err != nil {
		return false, err
	}

	var existing models.Subscriber
	err = s.db.WithContext(ctx).Where("email = ?", in.Email).Take(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("lookup subscriber: %w", err)
	}
	if found && existing.Confirmed() {
		return false, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	if found {
		if err := s.resend(ctx, &existing, in, string(hash)); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, s.create(ctx, in, string(hash))
}

func (s *Service) resend(ctx context.Context, sub *models.Subscriber, in RegisterDTO, hash string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub.Name, sub.Surname, sub.Password, sub.Gender = in.Name, in.Surname, hash, models.Gender(in.Gender)
		// the owner may have confirmed since the lookup
		res := tx.Model(&models.Subscriber{}).
			Where("id = ? AND notifications = ?", sub.ID, models.NotificationsUnconfirmed).
			Updates(map[string]interface{}{
				"name":     sub.Name,
				"surname":  sub.Surname,
				"password": sub.Password,
				"gender":   sub.Gender,
			})
		if res.Error != nil {
			return fmt.Errorf("update unconfirmed subscriber: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errEmailTaken
		}
		return s.apply(ctx, sideEffect{
			name:   "confirmation_mail",
			policy: effectFatal,
			run: func(ctx context.Context) error {
				return s.mailer.SendConfirmation(ctx, recipient(sub), sub.Telegram)
			},
		})
	})
}

func (s *Service) create(ctx context.Context, in RegisterDTO, hash string) error {
	unsub, err := randomHex(32)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := s.codes.Unique(ctx, codegen.StoreChecker(tx))
		if err != nil {
			return fmt.Errorf("telegram code: %w", err)
		}
		sub := &models.Subscriber{
			Email:                   in.Email,
			Password:                hash,
			Name:                    in.Name,
			Surname:                 in.Surname,
			Gender:                  models.Gender(in.Gender),
			Notifications:           models.NotificationsUnconfirmed,
			Telegram:                code,
			Keywords:                models.StringArray{},
			NotificationPreferences: models.DefaultChannel,
			NotificationTime:        models.DefaultNotificationTime,
			UnsubToken:              unsub,
		}
		if err := tx.Create(sub).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return errEmailTaken
			}
			return fmt.Errorf("insert subscriber: %w", err)
		}
		return s.apply(ctx, sideEffect{
			name:   "confirmation_mail",
			policy: effectFatal,
			run: func(ctx context.Context) error {
				return s.mailer.SendConfirmation(ctx, recipient(sub), code)
			},
		})
	})
}

// Confirm redeems a confirmation code. The welcome mail goes out first and the
// account flips to confirmed only if it was delivered.
func (s *Service) Confirm(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return errInvalidCode
	}
	var sub models.Subscriber
	if err := s.db.WithContext(ctx).Where("telegram = ?", code).Take(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errInvalidCode
		}
		return fmt.Errorf("lookup code: %w", err)
	}
	if sub.Confirmed() {
		return errAlreadyConfirmed
	}

	if err := s.apply(ctx, sideEffect{
		name:   "welcome_mail",
		policy: effectFatal,
		run:    func(ctx context.Context) error { return s.mailer.SendWelcome(ctx, recipient(&sub)) },
	}); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Subscriber{}).
		Where("telegram = ? AND notifications = ?", code, models.NotificationsUnconfirmed).
		Update("notifications", gorm.Expr("notifications + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("confirm subscriber: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// a concurrent confirmation got there first
		return errAlreadyConfirmed
	}
	s.logger.Info("subscriber confirmed", zap.String("id", sub.ID))
	return nil
}

// Login verifies credentials and issues an access token and a refresh token.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if email == "" || dto.Password == "" {
		return nil, errInvalidCredentials
	}
	var sub models.Subscriber
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("lookup subscriber: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(sub.Password), []byte(dto.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	token, err := jwt.Sign(sub.ID, sub.Email, jwt.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := randomHex(64)
	if err != nil {
		return nil, err
	}
	now := s.now()

	effects := []sideEffect{
		{
			name:   "store_refresh_token",
			policy: effectFatal,
			run: func(ctx context.Context) error {
				return s.db.WithContext(ctx).Create(&models.RefreshToken{
					SubscriberID: sub.ID,
					TokenHash:    models.HashRefreshToken(refresh),
					ExpiresAt:    now.Add(RefreshTokenTTL),
				}).Error
			},
		},
		{
			name:   "last_login",
			policy: effectBestEffort,
			run: func(ctx context.Context) error {
				return s.db.WithContext(ctx).Model(&sub).Update("last_login", now).Error
			},
		},
		{
			name:   "onboarding_flag",
			policy: effectBestEffort,
			run: func(ctx context.Context) error {
				if sub.Onboarding {
					return nil
				}
				return s.db.WithContext(ctx).Model(&models.Subscriber{}).Where("id = ?", sub.ID).Update("onboarding", true).Error
			},
		},
	}
	onboarding := !sub.Onboarding
	for _, e := range effects {
		if err := s.apply(ctx, e); err != nil {
			return nil, err
		}
	}

	return &LoginResult{Token: token, RefreshToken: refresh, Onboarding: onboarding}, nil
}

// Refresh exchanges a live refresh token for a new access token and slides its expiry.
func (s *Service) Refresh(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errInvalidRefresh
	}
	now := s.now()
	hash := models.HashRefreshToken(raw)

	var rt models.RefreshToken
	if err := s.db.WithContext(ctx).Where("token_hash = ? AND expires_at > ?", hash, now).Take(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errInvalidRefresh
		}
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	var sub models.Subscriber
	if err := s.db.WithContext(ctx).Select("id", "email").Where("id = ?", rt.SubscriberID).Take(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errInvalidRefresh
		}
		return "", fmt.Errorf("lookup subscriber: %w", err)
	}

	token, err := jwt.Sign(sub.ID, sub.Email, jwt.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&rt).Update("expires_at", now.Add(RefreshTokenTTL)).Error; err != nil {
		return "", fmt.Errorf("extend refresh token: %w", err)
	}
	return token, nil
}

// Logout revokes a refresh token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errMissingRefresh
	}
	return s.db.WithContext(ctx).
		Where("token_hash = ?", models.HashRefreshToken(raw)).
		Delete(&models.RefreshToken{}).Error
}

// CleanupExpired deletes refresh tokens past their expiry and reports how many went.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
