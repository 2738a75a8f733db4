package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	// DefaultEnvPath is the optional dotenv file loaded before the YAML config.
	DefaultEnvPath = ".env"

	defaultPort     = 3000
	defaultEnv      = "development"
	defaultTimezone = "Europe/Rome"
	defaultSiteURL  = "https://fn.lkev.in"

	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"

	defaultDBDriver   = DriverPostgres
	defaultDBHost     = "127.0.0.1"
	defaultPGPort     = 5432
	defaultMySQLPort  = 3306
	defaultDBUser     = "postgres"
	defaultDBName     = "ferminotify"
	defaultDBSSLMode  = "disable"
	defaultSQLitePath = "ferminotify.db"
	defaultMaxOpen    = 20
	defaultMaxIdle    = 5
	defaultConnMaxAge = 30 * time.Minute

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379

	MailProviderSMTP   = "smtp"
	MailProviderResend = "resend"
	MailProviderSES    = "ses"
	MailProviderLog    = "log"

	defaultMailProvider = MailProviderLog
	defaultMailFrom     = "Fermi Notify <noreply@fn.lkev.in>"
	defaultMailTimeout  = 15 * time.Second
	defaultMailAttempts = 3
	defaultSMTPPort     = 587
	defaultSESRegion    = "eu-west-1"

	defaultPushSubject     = "mailto:mail@fn.lkev.in"
	defaultPushTTL         = 24 * 60 * 60
	defaultPushTimeout     = 10 * time.Second
	defaultPushConcurrency = 8

	defaultRateLimitMax    = 20
	defaultRateLimitWindow = time.Minute
)
