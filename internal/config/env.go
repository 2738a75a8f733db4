package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads key=value pairs from path into the process environment.
// Variables that are already set win, and a missing file is not an error.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultEnvPath
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides maps the deployment environment variables onto the config.
func applyEnvOverrides(cfg *AppConfig, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	num("PORT", &cfg.Port)
	str("NODE_ENV", &cfg.Env)
	str("APP_ENV", &cfg.Env)
	str("TZ", &cfg.Timezone)
	str("URL", &cfg.SiteURL)
	str("JWT_SECRET", &cfg.JWTSecret)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		cfg.AllowedOrigins = strings.Split(v, ",")
	}

	str("DB_DRIVER", &cfg.Database.Driver)
	str("DATABASE_URL", &cfg.Database.DSN)
	str("DB_HOST", &cfg.Database.Host)
	num("DB_PORT", &cfg.Database.Port)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_DATABASE", &cfg.Database.Name)
	str("DB_SSLMODE", &cfg.Database.SSLMode)

	if v, ok := lookup("REDIS_URL"); ok && strings.TrimSpace(v) != "" {
		cfg.Redis.URL = strings.TrimSpace(v)
		cfg.Redis.Enable = true
	}

	str("MAIL_PROVIDER", &cfg.Mail.Provider)
	str("MAIL_FROM", &cfg.Mail.From)
	str("SMTP_HOST", &cfg.Mail.SMTP.Host)
	num("SMTP_PORT", &cfg.Mail.SMTP.Port)
	str("SMTP_USER", &cfg.Mail.SMTP.User)
	str("SMTP_PASS", &cfg.Mail.SMTP.Pass)
	str("RESEND_API_KEY", &cfg.Mail.Resend.APIKey)
	str("AWS_REGION", &cfg.Mail.SES.Region)
	str("AWS_ACCESS_KEY_ID", &cfg.Mail.SES.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &cfg.Mail.SES.SecretAccessKey)

	str("VAPID_PUBLIC_KEY", &cfg.Push.VAPIDPublicKey)
	str("VAPID_PRIVATE_KEY", &cfg.Push.VAPIDPrivateKey)
	str("VAPID_SUBJECT", &cfg.Push.Subject)
	str("NOTIFICATION_API_KEY", &cfg.Push.NotifyAPIKey)
}
