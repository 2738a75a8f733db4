// Package testutil provides in-memory stores and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ferminotify/core/internal/database"
	"github.com/ferminotify/core/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// The pool holds a single connection, so code running inside a transaction
// must issue every query through the transaction handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// SubscriberOption customises a fixture row.
type SubscriberOption func(*models.Subscriber)

func Unconfirmed() SubscriberOption {
	return func(s *models.Subscriber) { s.Notifications = models.NotificationsUnconfirmed }
}

func WithChannel(c models.Channel) SubscriberOption {
	return func(s *models.Subscriber) { s.NotificationPreferences = c }
}

func WithKeywords(k ...string) SubscriberOption {
	return func(s *models.Subscriber) { s.Keywords = k }
}

func WithPassword(p string) SubscriberOption {
	return func(s *models.Subscriber) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(p), bcrypt.MinCost)
		s.Password = string(hash)
	}
}

var fixtureSeq atomic.Int64

// CreateSubscriber inserts a confirmed subscriber named Mario Rossi with a unique email and code.
func CreateSubscriber(t *testing.T, db *gorm.DB, opts ...SubscriberOption) *models.Subscriber {
	t.Helper()
	n := fixtureSeq.Add(1)
	s := &models.Subscriber{
		Email:                   fmt.Sprintf("mario%d@example.com", n),
		Name:                    "Mario",
		Surname:                 "Rossi",
		Gender:                  models.GenderMale,
		Notifications:           0,
		Telegram:                fmt.Sprintf("X%07d", n),
		Keywords:                models.StringArray{},
		NotificationPreferences: models.DefaultChannel,
		NotificationTime:        models.DefaultNotificationTime,
		UnsubToken:              fmt.Sprintf("unsub-token-%d", n),
	}
	WithPassword("password1")(s)
	for _, opt := range opts {
		opt(s)
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

// Reload reads the subscriber row back from the store.
func Reload(t *testing.T, db *gorm.DB, id string) *models.Subscriber {
	t.Helper()
	var s models.Subscriber
	require.NoError(t, db.First(&s, "id = ?", id).Error)
	return &s
}
