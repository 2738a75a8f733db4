package mail

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ferminotify/core/internal/config"
)

// BuildMailConfig constructs a mail.Config from the application config so that
// every caller builds the sender the same way.
func BuildMailConfig(cfg *config.AppConfig) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		Enable:   cfg.Mail.Enable,
		Provider: cfg.Mail.Provider,
		From:     cfg.Mail.From,
		ReplyTo:  cfg.Mail.ReplyTo,
		SiteURL:  cfg.SiteURL,
		Timeout:  cfg.Mail.Timeout,
		Attempts: cfg.Mail.Attempts,
	}
}

// NewProvider picks the delivery backend named by the mail config.
func NewProvider(cfg *config.AppConfig, logger *zap.Logger) (Provider, error) {
	m := cfg.Mail
	switch m.Provider {
	case config.MailProviderSMTP:
		return &SMTPProvider{
			Host:    m.SMTP.Host,
			Port:    m.SMTP.Port,
			User:    m.SMTP.User,
			Pass:    m.SMTP.Pass,
			From:    m.From,
			ReplyTo: m.ReplyTo,
		}, nil
	case config.MailProviderResend:
		return &ResendProvider{
			APIKey:  m.Resend.APIKey,
			From:    m.From,
			ReplyTo: m.ReplyTo,
			Client:  &http.Client{},
		}, nil
	case config.MailProviderSES:
		return NewSESProvider(m.SES.Region, m.SES.AccessKeyID, m.SES.SecretAccessKey, m.From, m.ReplyTo), nil
	case config.MailProviderLog, "":
		return &LogProvider{Logger: logger}, nil
	}
	return nil, fmt.Errorf("mail: unknown provider %q", m.Provider)
}

// NewFromConfig builds a ready Sender from the application config.
func NewFromConfig(cfg *config.AppConfig, logger *zap.Logger) (*Sender, error) {
	provider, err := NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(BuildMailConfig(cfg), provider, WithLogger(logger)), nil
}
