package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	Timezone       string                `yaml:"timezone"`
	SiteURL        string                `yaml:"site_url"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Mail           MailRuntimeConfig     `yaml:"mail"`
	Push           PushRuntimeConfig     `yaml:"push"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
}

type DatabaseRuntimeConfig struct {
	Driver          string            `yaml:"driver"`
	DSN             string            `yaml:"dsn"`
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	User            string            `yaml:"user"`
	Password        string            `yaml:"password"`
	Name            string            `yaml:"name"`
	SSLMode         string            `yaml:"sslmode"`
	Path            string            `yaml:"path"` // sqlite only
	Params          map[string]string `yaml:"params"`
	MaxOpenConns    int               `yaml:"max_open_conns"`
	MaxIdleConns    int               `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime"`
}

type RedisRuntimeConfig struct {
	Enable   bool   `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type MailRuntimeConfig struct {
	Enable   bool          `yaml:"enable"`
	Provider string        `yaml:"provider"` // smtp | resend | ses | log
	From     string        `yaml:"from"`
	ReplyTo  string        `yaml:"reply_to"`
	Timeout  time.Duration `yaml:"timeout"`
	Attempts int           `yaml:"attempts"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	Resend   ResendConfig  `yaml:"resend"`
	SES      SESConfig     `yaml:"ses"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
}

type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type PushRuntimeConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key"`
	Subject         string        `yaml:"subject"`
	NotifyAPIKey    string        `yaml:"notify_api_key"`
	TTL             int           `yaml:"ttl"`
	Timeout         time.Duration `yaml:"timeout"`
	Concurrency     int           `yaml:"concurrency"`
}

type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawAppConfig struct {
	Port               int               `yaml:"port"`
	Env                string            `yaml:"env"`
	NodeEnv            string            `yaml:"node_env"`
	Timezone           string            `yaml:"timezone"`
	TZ                 string            `yaml:"tz"`
	SiteURL            string            `yaml:"site_url"`
	URL                string            `yaml:"url"`
	AllowedOrigins     []string          `yaml:"allowed_origins"`
	CORSAllowedOrigins []string          `yaml:"cors_allowed_origins"`
	JWTSecret          string            `yaml:"jwt_secret"`
	Database           rawDatabaseConfig `yaml:"database"`
	Redis              rawRedisConfig    `yaml:"redis"`
	Mail               rawMailConfig     `yaml:"mail"`
	Push               rawPushConfig     `yaml:"push"`
	RateLimit          rawRateLimit      `yaml:"rate_limit"`
	Paths              rawPathsConfig    `yaml:"paths"`
	LogDir             string            `yaml:"log_dir"`
}

type rawDatabaseConfig struct {
	Driver          string            `yaml:"driver"`
	DSN             string            `yaml:"dsn"`
	URL             string            `yaml:"url"`
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	User            string            `yaml:"user"`
	Username        string            `yaml:"username"`
	Password        string            `yaml:"password"`
	Name            string            `yaml:"name"`
	Database        string            `yaml:"database"`
	SSLMode         string            `yaml:"sslmode"`
	Path            string            `yaml:"path"`
	Params          map[string]string `yaml:"params"`
	MaxOpenConns    int               `yaml:"max_open_conns"`
	MaxIdleConns    int               `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration     `yaml:"conn_max_lifetime"`
}

type rawRedisConfig struct {
	Enable   *bool  `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawMailConfig struct {
	Enable   *bool         `yaml:"enable"`
	Provider string        `yaml:"provider"`
	From     string        `yaml:"from"`
	ReplyTo  string        `yaml:"reply_to"`
	Timeout  time.Duration `yaml:"timeout"`
	Attempts int           `yaml:"attempts"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	Resend   ResendConfig  `yaml:"resend"`
	SES      SESConfig     `yaml:"ses"`
}

type rawPushConfig struct {
	VAPIDPublicKey  string        `yaml:"vapid_public_key"`
	VAPIDPrivateKey string        `yaml:"vapid_private_key"`
	Subject         string        `yaml:"subject"`
	NotifyAPIKey    string        `yaml:"notify_api_key"`
	TTL             int           `yaml:"ttl"`
	Timeout         time.Duration `yaml:"timeout"`
	Concurrency     int           `yaml:"concurrency"`
}

type rawRateLimit struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

type rawPathsConfig struct {
	Logs string `yaml:"logs"`
}
