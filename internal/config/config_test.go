package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, defaultPGPort, cfg.Database.Port)
	assert.Equal(t, MailProviderLog, cfg.Mail.Provider)
	assert.Equal(t, defaultPushSubject, cfg.Push.Subject)
	assert.Equal(t, 8, cfg.Push.Concurrency)
	assert.False(t, cfg.Redis.Enable)
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: production
site_url: https://example.org/
jwt_secret: s3cret
allowed_origins: [" fn.lkev.in ", "*.lkev.in", ""]
database:
  driver: mariadb
  host: db
  user: fermi
  password: pw
  database: notify
  max_open_conns: 4
  conn_max_lifetime: 1m
redis:
  url: cache:6379/1
mail:
  provider: SMTP
  timeout: 5s
  attempts: 2
  smtp:
    host: smtp.example.org
    port: 465
push:
  vapid_public_key: pub
  vapid_private_key: priv
  subject: ops@example.org
  notify_api_key: operator
  concurrency: 2
rate_limit:
  max: 5
  window: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "https://example.org", cfg.SiteURL)
	assert.Equal(t, []string{"fn.lkev.in", "*.lkev.in"}, cfg.AllowedOrigins)

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, defaultMySQLPort, cfg.Database.Port)
	assert.Equal(t, "notify", cfg.Database.Name)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "fermi:pw@tcp(db:3306)/notify?charset=utf8mb4&loc=UTC&parseTime=True", cfg.Database.DSNValue())

	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URLValue())

	assert.Equal(t, MailProviderSMTP, cfg.Mail.Provider)
	assert.Equal(t, 5*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, 465, cfg.Mail.SMTP.Port)

	assert.True(t, cfg.HasVAPIDKeys())
	assert.Equal(t, "mailto:ops@example.org", cfg.Push.Subject)
	assert.Equal(t, 2, cfg.Push.Concurrency)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "port: 8080\nmystery: true\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"port":         "port: 70000\n",
		"driver":       "database:\n  driver: oracle\n",
		"provider":     "mail:\n  provider: pigeon\n",
		"smtp host":    "mail:\n  provider: smtp\n",
		"resend key":   "mail:\n  provider: resend\n",
		"concurrency":  "push:\n  concurrency: -1\n",
		"rate window":  "rate_limit:\n  window: -1s\n",
		"redis db":     "redis:\n  enable: true\n  db: -2\n",
		"mail attempt": "mail:\n  attempts: -3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionRequiresJWTSecret(t *testing.T) {
	for _, key := range []string{"JWT_SECRET", "NODE_ENV", "APP_ENV"} {
		t.Setenv(key, "")
	}
	_, err := Load(writeConfig(t, "env: production\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")

	cfg, err := Load(writeConfig(t, "env: production\njwt_secret: s3cret\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)

	cfg, err = Load(writeConfig(t, "env: development\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, defaultPort, cfg.Port)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"JWT_SECRET":           "from-env",
		"URL":                  "https://fn.example",
		"DB_HOST":              "pg.internal",
		"DB_PORT":              "6543",
		"DB_USER":              "svc",
		"DB_PASSWORD":          "p w",
		"DB_DATABASE":          "fermi",
		"VAPID_PUBLIC_KEY":     "pub",
		"VAPID_PRIVATE_KEY":    "priv",
		"NOTIFICATION_API_KEY": "op",
		"REDIS_URL":            "redis://r:6379/0",
		"PORT":                 "not-a-number",
	}
	cfg := defaultAppConfig()
	applyEnvOverrides(&cfg, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	normalizeAppConfig(&cfg)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "https://fn.example", cfg.SiteURL)
	assert.Equal(t, "op", cfg.Push.NotifyAPIKey)
	assert.True(t, cfg.HasVAPIDKeys())
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t,
		"host=pg.internal port=6543 user=svc dbname=fermi sslmode=disable password='p w' TimeZone=UTC",
		cfg.Database.DSNValue())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FERMI_TEST_DOTENV=hello\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FERMI_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("FERMI_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSQLiteDSN(t *testing.T) {
	cfg := normalizeDatabaseConfig(DatabaseRuntimeConfig{Driver: "sqlite3"})
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "ferminotify.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", cfg.DSNValue())

	cfg.Path = ":memory:"
	assert.Equal(t, ":memory:", cfg.DSNValue())
}
