package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

var (
	// ErrTimeout marks an attempt that hit the per-attempt deadline. It is retryable.
	ErrTimeout = errors.New("mail: send timed out")
	// ErrRejected marks a definitive refusal by the provider. It is not retried.
	ErrRejected = errors.New("mail: rejected by provider")
)

// Config holds dispatch settings shared by every provider.
type Config struct {
	Enable     bool
	Provider   string
	From       string
	ReplyTo    string
	SiteURL    string
	Timeout    time.Duration
	Attempts   int
	RetryDelay time.Duration
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Provider delivers one message. Implementations must honour ctx cancellation.
type Provider interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Sender wraps a Provider with per-attempt timeouts and bounded retries.
type Sender struct {
	cfg      Config
	provider Provider
	logger   *zap.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the logger for the mail sender.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l.Named("MailService")
		}
	}
}

func New(cfg Config, provider Provider, opts ...Option) *Sender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	s := &Sender{cfg: cfg, provider: provider, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SiteURL is the public base used in links.
func (s *Sender) SiteURL() string { return s.cfg.SiteURL }

// Send dispatches msg. A disabled sender drops messages silently.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enable {
		s.logger.Debug("mail disabled, message dropped", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
	if s.provider == nil {
		return errors.New("mail: no provider configured")
	}

	var lastErr error
	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			lastErr = s.attempt(ctx, msg)
			return lastErr
		},
		retry.Attempts(uint(s.cfg.Attempts)),
		retry.Delay(s.cfg.RetryDelay),
		retry.MaxDelay(30*time.Second),
		retry.MaxJitter(s.cfg.RetryDelay),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrRejected)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("mail send failed, retrying",
				zap.String("provider", s.provider.Name()),
				zap.Uint("attempt", n+1),
				zap.Strings("to", msg.To),
				zap.Error(err))
		}),
	)
	if err == nil {
		s.logger.Info("mail sent", zap.String("provider", s.provider.Name()), zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
		return nil
	}
	if lastErr == nil {
		lastErr = err
	}
	return fmt.Errorf("mail: after %d attempt(s): %w", attempts, lastErr)
}

func (s *Sender) attempt(ctx context.Context, msg Message) error {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	err := s.provider.Send(attemptCtx, msg)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrTimeout, s.cfg.Timeout, err)
	}
	return err
}
