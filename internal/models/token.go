package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RefreshToken is a long-lived opaque credential. Only its SHA-256 digest is stored.
type RefreshToken struct {
	Base
	SubscriberID string    `json:"-" gorm:"type:char(36);index;not null"`
	TokenHash    string    `json:"-" gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"index;not null"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// HashRefreshToken returns the lookup digest for an opaque refresh token.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// PushSubscription is one browser push endpoint. The endpoint is the natural key.
type PushSubscription struct {
	Base
	Endpoint     string `json:"endpoint"      gorm:"size:768;uniqueIndex;not null"`
	P256dh       string `json:"p256dh"        gorm:"size:255;not null"`
	Auth         string `json:"auth"          gorm:"size:255;not null"`
	SubscriberID string `json:"subscriber_id" gorm:"type:char(36);index"`
}

func (PushSubscription) TableName() string { return "push_subscriptions" }
