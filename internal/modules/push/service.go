package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/ferminotify/core/internal/database"
	"github.com/ferminotify/core/internal/models"
	"github.com/ferminotify/core/internal/pkg/webpush"
)

type Service struct {
	db          *gorm.DB
	sender      webpush.Sender
	logger      *zap.Logger
	concurrency int
}

func NewService(db *gorm.DB, sender webpush.Sender, opts ...ServiceOption) *Service {
	s := &Service{
		db:          db,
		sender:      sender,
		logger:      zap.NewNop(),
		concurrency: defaultConcurrency,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ServiceOption configures a push Service.
type ServiceOption func(*Service)

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("PushService")
		}
	}
}

// WithConcurrency bounds the number of in-flight sends during a broadcast.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func (s *Service) PublicKey() string { return s.sender.PublicKey() }

func (s *Service) HasKeys() bool { return s.sender.HasKeys() }

func (s *Service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.PushSubscription{}).Count(&n).Error
	return n, err
}

// Subscribe stores the subscription keyed by endpoint, replacing keys and owner of an
// existing one. It reports whether the endpoint was already known.
func (s *Service) Subscribe(ctx context.Context, userID string, dto SubscribeDTO) (bool, error) {
	sub := models.PushSubscription{
		Endpoint:     strings.TrimSpace(dto.Endpoint),
		P256dh:       strings.TrimSpace(dto.Keys.P256dh),
		Auth:         strings.TrimSpace(dto.Keys.Auth),
		SubscriberID: userID,
	}
	if sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return false, errInvalidSubscription
	}

	var (
		updated bool
		err     error
	)
	// a lost insert race for the same endpoint surfaces as a duplicate key; the
	// second pass finds the winner's row and updates it
	for attempt := 0; attempt < 2; attempt++ {
		updated, err = s.upsert(ctx, sub)
		if !database.IsDuplicateKey(err) {
			break
		}
	}
	if err != nil {
		return false, fmt.Errorf("store push subscription: %w", err)
	}
	s.logger.Info("push subscription stored", zap.String("endpoint", sub.Endpoint), zap.Bool("updated", updated))
	return updated, nil
}

func (s *Service) upsert(ctx context.Context, sub models.PushSubscription) (bool, error) {
	var updated bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.PushSubscription
		err := tx.Select("id").Where("endpoint = ?", sub.Endpoint).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&sub).Error
		}
		if err != nil {
			return err
		}
		updated = true
		return tx.Model(&models.PushSubscription{}).Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"p256dh":        sub.P256dh,
				"auth":          sub.Auth,
				"subscriber_id": sub.SubscriberID,
			}).Error
	})
	return updated, err
}

// Notify sends msg to every stored subscription. Endpoints reported gone or refusing
// our key are pruned; other failures are logged and skipped.
func (s *Service) Notify(ctx context.Context, msg NotifyDTO) (*Result, error) {
	if !s.sender.HasKeys() {
		return nil, errNoKeys
	}
	payload, err := json.Marshal(msg.withDefaults())
	if err != nil {
		return nil, err
	}
	// a disconnected caller must not abort the rest of the batch; each send
	// still carries the sender's own timeout
	ctx = context.WithoutCancel(ctx)

	var subs []models.PushSubscription
	if err := s.db.WithContext(ctx).Order("created_at").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}

	var sent, removed, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, sub := range subs {
		g.Go(func() error {
			status, err := s.sender.Send(ctx, webpush.Subscription{
				Endpoint: sub.Endpoint, P256dh: sub.P256dh, Auth: sub.Auth,
			}, payload)
			if err != nil {
				failed.Add(1)
				s.logger.Warn("push send failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
				return nil
			}
			switch webpush.Classify(status) {
			case webpush.Delivered:
				sent.Add(1)
			case webpush.Gone, webpush.Mismatch:
				if err := s.prune(ctx, sub.Endpoint); err != nil {
					failed.Add(1)
					s.logger.Error("prune push subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
					return nil
				}
				removed.Add(1)
				s.logger.Warn("removed stale push subscription", zap.String("endpoint", sub.Endpoint), zap.Int("status", status))
			default:
				failed.Add(1)
				s.logger.Warn("push rejected", zap.String("endpoint", sub.Endpoint), zap.Int("status", status))
			}
			return nil
		})
	}
	_ = g.Wait()

	total, err := s.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count push subscriptions: %w", err)
	}
	res := &Result{Sent: sent.Load(), Removed: removed.Load(), Failed: failed.Load(), Total: total}
	s.logger.Info("push broadcast done",
		zap.Int64("sent", res.Sent), zap.Int64("removed", res.Removed),
		zap.Int64("failed", res.Failed), zap.Int64("total", res.Total))
	return res, nil
}

func (s *Service) prune(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.PushSubscription{}).Error
}
