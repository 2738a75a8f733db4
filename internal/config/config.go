package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies environment overrides and validates the result.
// A missing file is tolerated so the service can be configured purely from the environment.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		raw := rawAppConfig{}
		if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
		applyRawAppConfig(&cfg, raw)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnvOverrides(&cfg, os.LookupEnv)
	normalizeAppConfig(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port:     defaultPort,
		Env:      defaultEnv,
		Timezone: defaultTimezone,
		SiteURL:  defaultSiteURL,
		Database: DatabaseRuntimeConfig{
			Driver:          defaultDBDriver,
			Host:            defaultDBHost,
			User:            defaultDBUser,
			Name:            defaultDBName,
			SSLMode:         defaultDBSSLMode,
			MaxOpenConns:    defaultMaxOpen,
			MaxIdleConns:    defaultMaxIdle,
			ConnMaxLifetime: defaultConnMaxAge,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
		},
		Mail: MailRuntimeConfig{
			Enable:   true,
			Provider: defaultMailProvider,
			From:     defaultMailFrom,
			Timeout:  defaultMailTimeout,
			Attempts: defaultMailAttempts,
			SMTP:     SMTPConfig{Port: defaultSMTPPort},
			SES:      SESConfig{Region: defaultSESRegion},
		},
		Push: PushRuntimeConfig{
			Subject:     defaultPushSubject,
			TTL:         defaultPushTTL,
			Timeout:     defaultPushTimeout,
			Concurrency: defaultPushConcurrency,
		},
		RateLimit: RateLimitConfig{
			Max:    defaultRateLimitMax,
			Window: defaultRateLimitWindow,
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(raw.NodeEnv); v != "" {
		cfg.Env = v
	}
	if v := firstNonEmpty(raw.Timezone, raw.TZ); v != "" {
		cfg.Timezone = v
	}
	if v := firstNonEmpty(raw.SiteURL, raw.URL); v != "" {
		cfg.SiteURL = v
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.AllowedOrigins
	}
	if len(raw.CORSAllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.CORSAllowedOrigins
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := firstNonEmpty(raw.Paths.Logs, raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}

	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis)
	cfg.Mail = applyRawMailConfig(cfg.Mail, raw.Mail)
	cfg.Push = applyRawPushConfig(cfg.Push, raw.Push)

	if raw.RateLimit.Max != 0 {
		cfg.RateLimit.Max = raw.RateLimit.Max
	}
	if raw.RateLimit.Window != 0 {
		cfg.RateLimit.Window = raw.RateLimit.Window
	}
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawDatabaseConfig) DatabaseRuntimeConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		current.Driver = v
	}
	if v := firstNonEmpty(raw.DSN, raw.URL); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if v := firstNonEmpty(raw.User, raw.Username); v != "" {
		current.User = v
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if v := firstNonEmpty(raw.Name, raw.Database); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(raw.SSLMode); v != "" {
		current.SSLMode = v
	}
	if v := strings.TrimSpace(raw.Path); v != "" {
		current.Path = v
	}
	if raw.Params != nil {
		current.Params = copyStringMap(raw.Params)
	}
	if raw.MaxOpenConns != 0 {
		current.MaxOpenConns = raw.MaxOpenConns
	}
	if raw.MaxIdleConns != 0 {
		current.MaxIdleConns = raw.MaxIdleConns
	}
	if raw.ConnMaxLifetime != 0 {
		current.ConnMaxLifetime = raw.ConnMaxLifetime
	}
	return current
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawRedisConfig) RedisRuntimeConfig {
	if raw.Enable != nil {
		current.Enable = *raw.Enable
	}
	if v := strings.TrimSpace(raw.URL); v != "" {
		current.URL = v
		if raw.Enable == nil {
			current.Enable = true
		}
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if raw.DB != nil {
		current.DB = *raw.DB
	}
	if raw.TLS != nil {
		current.TLS = *raw.TLS
	}
	return current
}

func applyRawMailConfig(current MailRuntimeConfig, raw rawMailConfig) MailRuntimeConfig {
	if raw.Enable != nil {
		current.Enable = *raw.Enable
	}
	if v := strings.TrimSpace(raw.Provider); v != "" {
		current.Provider = v
	}
	if v := strings.TrimSpace(raw.From); v != "" {
		current.From = v
	}
	if v := strings.TrimSpace(raw.ReplyTo); v != "" {
		current.ReplyTo = v
	}
	if raw.Timeout != 0 {
		current.Timeout = raw.Timeout
	}
	if raw.Attempts != 0 {
		current.Attempts = raw.Attempts
	}
	if v := strings.TrimSpace(raw.SMTP.Host); v != "" {
		current.SMTP.Host = v
	}
	if raw.SMTP.Port != 0 {
		current.SMTP.Port = raw.SMTP.Port
	}
	if v := strings.TrimSpace(raw.SMTP.User); v != "" {
		current.SMTP.User = v
	}
	if raw.SMTP.Pass != "" {
		current.SMTP.Pass = raw.SMTP.Pass
	}
	if v := strings.TrimSpace(raw.Resend.APIKey); v != "" {
		current.Resend.APIKey = v
	}
	if v := strings.TrimSpace(raw.SES.Region); v != "" {
		current.SES.Region = v
	}
	if v := strings.TrimSpace(raw.SES.AccessKeyID); v != "" {
		current.SES.AccessKeyID = v
	}
	if raw.SES.SecretAccessKey != "" {
		current.SES.SecretAccessKey = raw.SES.SecretAccessKey
	}
	return current
}

func applyRawPushConfig(current PushRuntimeConfig, raw rawPushConfig) PushRuntimeConfig {
	if v := strings.TrimSpace(raw.VAPIDPublicKey); v != "" {
		current.VAPIDPublicKey = v
	}
	if v := strings.TrimSpace(raw.VAPIDPrivateKey); v != "" {
		current.VAPIDPrivateKey = v
	}
	if v := strings.TrimSpace(raw.Subject); v != "" {
		current.Subject = v
	}
	if raw.NotifyAPIKey != "" {
		current.NotifyAPIKey = raw.NotifyAPIKey
	}
	if raw.TTL != 0 {
		current.TTL = raw.TTL
	}
	if raw.Timeout != 0 {
		current.Timeout = raw.Timeout
	}
	if raw.Concurrency != 0 {
		current.Concurrency = raw.Concurrency
	}
	return current
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL:
		if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Redis.Enable {
		if c.Redis.URL == "" && (c.Redis.Port < 1 || c.Redis.Port > 65535) {
			return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
		}
	}
	switch c.Mail.Provider {
	case MailProviderSMTP:
		if c.Mail.Enable && c.Mail.SMTP.Host == "" {
			return errors.New("mail.smtp.host is required for the smtp provider")
		}
	case MailProviderResend:
		if c.Mail.Enable && c.Mail.Resend.APIKey == "" {
			return errors.New("mail.resend.api_key is required for the resend provider")
		}
	case MailProviderSES, MailProviderLog:
	default:
		return fmt.Errorf("unsupported mail.provider %q", c.Mail.Provider)
	}
	if c.Mail.Attempts < 1 {
		return fmt.Errorf("invalid mail.attempts %d, expected >= 1", c.Mail.Attempts)
	}
	if c.Push.Concurrency < 1 {
		return fmt.Errorf("invalid push.concurrency %d, expected >= 1", c.Push.Concurrency)
	}
	if c.RateLimit.Max < 1 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("invalid rate_limit %d/%s", c.RateLimit.Max, c.RateLimit.Window)
	}
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("jwt_secret is required when env is %q", c.Env)
	}
	return nil
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// HasVAPIDKeys reports whether both halves of the push key pair are configured.
func (c *AppConfig) HasVAPIDKeys() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}
